// Package registration implements wallet-based signup.
package registration

import (
	"context"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/payeasy/payeasy-api/internal/audit"
	"github.com/payeasy/payeasy-api/internal/database"
	apperrors "github.com/payeasy/payeasy-api/internal/errors"
	"github.com/payeasy/payeasy-api/internal/logging"
	"github.com/payeasy/payeasy-api/internal/stellar"
)

const maxEmailLength = 254

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{3,20}$`)
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]{2,}$`)
)

// Client-facing messages.
const (
	MsgInvalidBody      = "Invalid JSON body"
	MsgPublicKeyMissing = "public_key is required"
	MsgUsernameMissing  = "username is required"
	MsgKeyFormat        = "Invalid Stellar public key format"
	MsgKeyInvalid       = "Invalid Stellar public key"
	MsgUsernameInvalid  = "Username must be 3–20 characters and contain only letters, numbers, underscores, or hyphens"
	MsgEmailInvalid     = "Invalid email address"
	MsgWalletTaken      = "A user with this wallet is already registered"
	MsgUsernameTaken    = "Username is already taken"
	MsgEmailTaken       = "An account with this email already exists"
	MsgCreateFailed     = "Failed to create user"

	reasonWalletTaken = "Wallet already registered"
	reasonInternal    = "Internal server error during registration"
)

// Signer issues session tokens bound to a wallet.
type Signer interface {
	Sign(userID, publicKey string) (string, error)
}

// Auditor records authentication outcomes.
type Auditor interface {
	Success(ctx context.Context, event audit.Event) error
	Failure(ctx context.Context, event audit.Event, reason string) error
}

// Request is one signup attempt.
type Request struct {
	Body      []byte
	ClientIP  string
	UserAgent string
	RequestID string
}

// Result is a successful signup.
type Result struct {
	User  *database.User
	Token string
}

// Flow runs signups against a user store.
type Flow struct {
	store   database.UserRepository
	signer  Signer
	auditor Auditor
	logger  *logging.Logger
}

// NewFlow creates a Flow.
func NewFlow(store database.UserRepository, signer Signer, auditor Auditor, logger *logging.Logger) *Flow {
	if logger == nil {
		logger = logging.NewDefault("registration")
	}
	return &Flow{store: store, signer: signer, auditor: auditor, logger: logger}
}

type input struct {
	publicKey string
	username  string
	email     *string
}

// Register validates the request, checks uniqueness, inserts the user and
// issues a session token. Errors are *apperrors.ServiceError values.
func (f *Flow) Register(ctx context.Context, req Request) (*Result, error) {
	in, err := parse(req.Body)
	if err != nil {
		return nil, err
	}

	event := audit.Event{
		PublicKey: in.publicKey,
		IPAddress: req.ClientIP,
		UserAgent: req.UserAgent,
		RequestID: req.RequestID,
	}

	res, err := f.register(ctx, in, event)
	if err != nil && apperrors.GetServiceError(err) == nil {
		return nil, f.fail(ctx, event, err)
	}
	return res, err
}

func (f *Flow) register(ctx context.Context, in input, event audit.Event) (*Result, error) {
	taken, err := f.store.UserExistsByPublicKey(ctx, in.publicKey)
	if err != nil {
		return nil, err
	}
	if taken {
		if err := f.auditor.Failure(ctx, event, reasonWalletTaken); err != nil {
			return nil, err
		}
		return nil, apperrors.Conflict(apperrors.CodeWalletTaken, MsgWalletTaken)
	}

	taken, err = f.store.UserExistsByUsername(ctx, in.username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperrors.Conflict(apperrors.CodeUsernameTaken, MsgUsernameTaken)
	}

	if in.email != nil {
		taken, err = f.store.UserExistsByEmail(ctx, *in.email)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, apperrors.Conflict(apperrors.CodeEmailTaken, MsgEmailTaken)
		}
	}

	user := &database.User{PublicKey: in.publicKey, Username: in.username, Email: in.email}
	if err := f.store.CreateUser(ctx, user); err != nil {
		return nil, classifyInsertError(err)
	}

	token, err := f.signer.Sign(user.ID, user.PublicKey)
	if err != nil {
		return nil, err
	}

	event.Metadata = map[string]interface{}{"action": "register"}
	if err := f.auditor.Success(ctx, event); err != nil {
		return nil, err
	}

	f.logger.WithContext(ctx).WithFields(logrus.Fields{
		"user_id":  user.ID,
		"username": user.Username,
	}).Info("user registered")
	return &Result{User: user, Token: token}, nil
}

// fail records the catch-all failure event and hides cause from the client.
func (f *Flow) fail(ctx context.Context, event audit.Event, cause error) error {
	if err := f.auditor.Failure(ctx, event, reasonInternal); err != nil {
		f.logger.WithContext(ctx).WithError(err).Error("record registration failure")
	}
	return apperrors.Internal("", cause)
}

// classifyInsertError maps a lost uniqueness race to the same conflicts the
// pre-checks report.
func classifyInsertError(err error) error {
	switch database.ViolatedColumn(err, "public_key", "username", "email") {
	case "public_key":
		return apperrors.Conflict(apperrors.CodeWalletTaken, MsgWalletTaken)
	case "username":
		return apperrors.Conflict(apperrors.CodeUsernameTaken, MsgUsernameTaken)
	case "email":
		return apperrors.Conflict(apperrors.CodeEmailTaken, MsgEmailTaken)
	}
	return apperrors.Internal(MsgCreateFailed, err)
}

func parse(raw []byte) (input, error) {
	var in input
	if !gjson.ValidBytes(raw) {
		return in, apperrors.Validation(apperrors.CodeInvalidBody, MsgInvalidBody)
	}
	body := gjson.ParseBytes(raw)
	if !body.IsObject() {
		return in, apperrors.Validation(apperrors.CodeInvalidBody, MsgInvalidBody)
	}

	in.publicKey = stringField(body, "public_key")
	if in.publicKey == "" {
		return in, apperrors.Validation(apperrors.CodeMissingField, MsgPublicKeyMissing)
	}
	in.username = stringField(body, "username")
	if in.username == "" {
		return in, apperrors.Validation(apperrors.CodeMissingField, MsgUsernameMissing)
	}

	if !stellar.MatchesAccountIDFormat(in.publicKey) {
		return in, apperrors.Validation(apperrors.CodeInvalidPublicKey, MsgKeyFormat)
	}
	if err := stellar.ValidateAccountID(in.publicKey); err != nil {
		return in, apperrors.Validation(apperrors.CodeInvalidPublicKey, MsgKeyInvalid)
	}

	if !usernamePattern.MatchString(in.username) {
		return in, apperrors.Validation(apperrors.CodeInvalidUsername, MsgUsernameInvalid)
	}

	if email := stringField(body, "email"); email != "" {
		email = strings.ToLower(email)
		if len(email) > maxEmailLength || !emailPattern.MatchString(email) {
			return in, apperrors.Validation(apperrors.CodeInvalidEmail, MsgEmailInvalid)
		}
		in.email = &email
	}
	return in, nil
}

func stringField(body gjson.Result, name string) string {
	v := body.Get(name)
	if v.Type != gjson.String {
		return ""
	}
	return strings.TrimSpace(v.Str)
}
