package order

type Status string

const (
	StatusNew        Status = "New"
	StatusProcessing Status = "Processing"
	StatusDone       Status = "Done"
	StatusFailed     Status = "Failed"
	StatusCancelled  Status = "Cancelled"
)

// Closed reports whether the order can no longer change state.
func (s Status) Closed() bool {
	return s == StatusDone || s == StatusCancelled
}
