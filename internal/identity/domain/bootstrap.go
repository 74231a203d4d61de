package domain

// BootstrapData carries the operator-supplied credentials for the initial
// administrator account.
type BootstrapData struct {
	Email    string
	Password string
	FullName string
}
