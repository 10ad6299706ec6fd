package models

// Member is the slice of the identity provider's member object this
// service reads. The provider owns the record; we only write back the
// comma-separated lmid list in its metadata.
type Member struct {
	ID      string
	Email   string
	Name    string
	School  string
	PlanIDs []string
}
