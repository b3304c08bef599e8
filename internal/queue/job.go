package queue

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"reaplex/pkg/models"
)

// newJob builds a fresh Job wrapping the given payload, attempts at zero.
func newJob(payload map[string]interface{}) *models.Job {
	return &models.Job{
		ID:        uuid.New().String(),
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
		Attempts:  0,
	}
}

func encodeJob(job *models.Job) (string, error) {
	raw, err := json.Marshal(job)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func decodeJob(raw string) (*models.Job, error) {
	var job models.Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return nil, err
	}
	return &job, nil
}
