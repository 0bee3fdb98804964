package demonlistqueue

// QueueName is the dedicated River queue for demon list maintenance.
const QueueName = "demonlist"

// ReconcileJob asks a worker to heal the stored list against the canonical order.
type ReconcileJob struct {
	// Reason records who asked: "periodic", "http" or "cli".
	Reason string `json:"reason"`
}

// Kind returns the job type identifier for River
func (ReconcileJob) Kind() string { return "demonlist_reconcile" }
