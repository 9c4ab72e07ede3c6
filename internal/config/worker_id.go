package config

import "github.com/google/uuid"

// randomWorkerID mints a fallback worker id when WORKER_ID is unset, so
// commit-offset logging still has a stable identity for the process
// lifetime even when the operator didn't pin one.
func randomWorkerID() string {
	return "worker-" + uuid.NewString()
}
