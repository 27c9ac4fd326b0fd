package auth

// UserView is the outward representation of an account. It never carries the
// password hash.
type UserView struct {
	ID       ID     `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Fullname string `json:"fullname"`
}

func viewOf(acc *Account) *UserView {
	return &UserView{ID: acc.ID, Username: acc.Username, Email: acc.Email, Fullname: acc.Fullname}
}

// Result is the uniform outcome of every service operation. A Result with
// Success=false is an expected outcome, not a fault; Err classifies it.
type Result struct {
	Success     bool
	Message     string
	User        *UserView
	Field       string
	FieldErrors ValidationErrors

	// Token is a freshly issued session token, set on signup, login and
	// update. Session holds the claims it carries.
	Token   string
	Session Claims

	Err error
}

func succeed(msg string, acc *Account, token string, session Claims) Result {
	return Result{Success: true, Message: msg, User: viewOf(acc), Token: token, Session: session}
}

func fail(err error, msg string) Result {
	return Result{Message: msg, Err: err}
}

func invalid(msg string, errs ValidationErrors) Result {
	return Result{Message: msg, FieldErrors: errs, Err: ErrValidation}
}

func conflict(field string) Result {
	return Result{Message: conflictMessages[field], Field: field, Err: ErrConflict}
}

var conflictMessages = map[string]string{
	fieldUsername: "Username already exists",
	fieldEmail:    "Email already exists",
}

const (
	msgSignupOK      = "Signup successful"
	msgSignupFailed  = "Signup failed. Please try again."
	msgLoginOK       = "Login successful"
	msgBadLogin      = "Invalid username or password"
	msgServerError   = "Server error"
	msgValidation    = "Validation failed"
	msgUpdateOK      = "User data updated successfully"
	msgUpdateFailed  = "Failed to update user data"
	msgDeleteOK      = "Account deleted successfully"
	msgDeleteFailed  = "Failed to delete account"
	msgUserNotFound  = "User not found"
	msgLogoutOK      = "Logout successful"
	msgUnauthorized  = "Unauthorized"
	msgBadRequest    = "Invalid request body"
	msgAuthenticated = "Authenticated"
)
