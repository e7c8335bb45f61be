package flows

// Deps groups flow dependency sets. The root engine builds this once and
// delegates request methods to the matching flow implementation.
type Deps struct {
	Verify        VerifyDeps
	SignIn        SignInDeps
	Register      RegisterDeps
	Issue         IssueDeps
	Refresh       RefreshDeps
	SignOut       SignOutDeps
	Validate      ValidateDeps
	AccountStatus AccountStatusDeps
}
