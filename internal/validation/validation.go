package validation

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/shopspring/decimal"

	"taskbounty/portal/internal/constants"
	"taskbounty/portal/internal/models/dtos"
)

// DateLayout is the format of HTML date inputs.
const DateLayout = "2006-01-02"

// Indian mobile numbers: ten digits starting 6-9.
var reMobileIN = regexp.MustCompile(`^[6-9]\d{9}$`)

// Errors maps a form field to its message. A non-empty Errors blocks the
// submission before any backend call.
type Errors map[string]string

func (e Errors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return strings.Join(parts, "; ")
}

// OK reports whether no field failed.
func (e Errors) OK() bool { return len(e) == 0 }

func (e Errors) Get(field string) string { return e[field] }

func Login(email, password string) (dtos.LoginRequest, Errors) {
	errs := Errors{}
	email = strings.TrimSpace(email)
	if email == "" {
		errs["email"] = "Email is required"
	} else if !govalidator.IsEmail(email) {
		errs["email"] = "Email is invalid"
	}

	pw := strings.TrimSpace(password)
	if pw == "" {
		errs["password"] = "Password is required"
	} else if len(pw) < 8 || len(pw) > 128 {
		errs["password"] = "Password should be between 8 to 128 characters"
	}
	return dtos.LoginRequest{Email: email, Password: password}, errs
}

type RegisterForm struct {
	Name     string
	Email    string
	Phone    string
	Password string
	Role     string
	// RoleRequired is false when the first account is being created.
	RoleRequired bool
}

// Register validates the sign-up form. The phone is sent with the +91 prefix.
func Register(f RegisterForm) (dtos.RegisterRequest, Errors) {
	errs := Errors{}
	name := strings.TrimSpace(f.Name)
	if name == "" {
		errs["name"] = "Name is required"
	}

	email := strings.TrimSpace(f.Email)
	if email == "" {
		errs["email"] = "Email is required"
	} else if !govalidator.IsEmail(email) {
		errs["email"] = "Invalid email"
	}

	phone := strings.TrimSpace(f.Phone)
	if len(phone) != 10 {
		errs["phone"] = "Enter 10-digit mobile number"
	} else if !reMobileIN.MatchString(phone) {
		errs["phone"] = "Invalid Indian phone number"
	}

	if strings.TrimSpace(f.Password) == "" {
		errs["password"] = "Password is required"
	} else if len(f.Password) < 8 || len(f.Password) > 128 {
		errs["password"] = "Password must be between 8 and 128 characters"
	}

	role := constants.Role(f.Role)
	if f.RoleRequired {
		if role != constants.RolePoster && role != constants.RoleHunter {
			errs["role"] = "Role is required"
		}
	} else {
		role = ""
	}

	return dtos.RegisterRequest{
		Name:     name,
		Email:    email,
		Phone:    "+91" + phone,
		Password: f.Password,
		Role:     role,
	}, errs
}

type TaskForm struct {
	Title       string
	Description string
	Budget      string
	Category    string
	BidEndDate  string
	Deadline    string
}

// Task validates the create form against today's date.
func Task(f TaskForm, now time.Time) (dtos.TaskCreateRequest, decimal.Decimal, Errors) {
	errs := Errors{}
	title := strings.TrimSpace(f.Title)
	if title == "" {
		errs["title"] = "Title is required."
	}

	budget, err := decimal.NewFromString(strings.TrimSpace(f.Budget))
	if err != nil || !budget.IsPositive() {
		errs["budget"] = "Budget must be a positive number."
	}
	if f.Category == "" {
		errs["category"] = "Category is required."
	}

	desc, bidEnd, deadline := taskSchedule(f, now, errs)

	return dtos.TaskCreateRequest{
		Title:       title,
		Description: desc,
		Budget:      json.Number(budget.String()),
		Category:    f.Category,
		BidEndDate:  bidEnd,
		Deadline:    deadline,
	}, budget, errs
}

// TaskEdit validates the fields an owner may change after posting.
func TaskEdit(f TaskForm, now time.Time) (dtos.TaskUpdateRequest, Errors) {
	errs := Errors{}
	desc, bidEnd, deadline := taskSchedule(f, now, errs)
	return dtos.TaskUpdateRequest{Description: desc, BidEndDate: bidEnd, Deadline: deadline}, errs
}

func taskSchedule(f TaskForm, now time.Time, errs Errors) (string, time.Time, time.Time) {
	desc := strings.TrimSpace(f.Description)
	if desc == "" {
		errs["description"] = "Description is required."
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var deadline time.Time
	if f.Deadline == "" {
		errs["deadline"] = "Deadline is required."
	} else if d, err := time.ParseInLocation(DateLayout, f.Deadline, now.Location()); err != nil {
		errs["deadline"] = "Deadline is required."
	} else {
		deadline = d
		if !d.After(today) {
			errs["deadline"] = "Deadline must be after today."
		}
	}

	var bidEnd time.Time
	if f.BidEndDate == "" {
		errs["bidEndDate"] = "Bid end date is required."
	} else if b, err := time.ParseInLocation(DateLayout, f.BidEndDate, now.Location()); err != nil {
		errs["bidEndDate"] = "Bid end date is required."
	} else {
		bidEnd = b
		if !b.After(today) {
			errs["bidEndDate"] = "Bid end date must be after today."
		} else if !deadline.IsZero() && !b.Before(deadline) {
			errs["bidEndDate"] = "Bid end date must be before the task deadline."
		}
	}
	return desc, bidEnd, deadline
}

func Category(name string) (string, Errors) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", Errors{"name": "Please provide a category name."}
	}
	return name, Errors{}
}

func Bid(amount, comment string) (dtos.BidRequest, Errors) {
	v, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil || !v.IsPositive() {
		return dtos.BidRequest{}, Errors{"bidAmount": "Bid amount required"}
	}
	return dtos.BidRequest{BidAmount: json.Number(v.String()), Comment: strings.TrimSpace(comment)}, Errors{}
}

// Amount validates a wallet top-up amount.
func Amount(raw string) (decimal.Decimal, Errors) {
	v, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || !v.IsPositive() {
		return decimal.Zero, Errors{"amount": "Enter a valid amount"}
	}
	return v, Errors{}
}

// Withdraw is the sufficiency pre-check against the last known balance. The
// backend may still refuse.
func Withdraw(raw string, balance decimal.Decimal) (decimal.Decimal, Errors) {
	v, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || !v.IsPositive() {
		return decimal.Zero, Errors{"amount": "Enter a valid amount greater than 0"}
	}
	if balance.LessThan(v) {
		return decimal.Zero, Errors{"amount": constants.MsgInsufficientBalance}
	}
	return v, Errors{}
}

func ForgotPassword(email string) (string, Errors) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", Errors{"email": "Email is required."}
	}
	if !govalidator.IsEmail(email) {
		return "", Errors{"email": "Invalid email"}
	}
	return email, Errors{}
}

func ResetPassword(email, otp, newPassword string) (dtos.ResetPasswordRequest, Errors) {
	errs := Errors{}
	email = strings.TrimSpace(email)
	if email == "" {
		errs["email"] = "Email is required."
	}
	otp = strings.TrimSpace(otp)
	if otp == "" {
		errs["otp"] = "OTP is required."
	}
	if len(newPassword) < 8 || len(newPassword) > 128 {
		errs["newPassword"] = "Password must be between 8 and 128 characters"
	}
	return dtos.ResetPasswordRequest{Email: email, OTP: otp, NewPassword: newPassword}, errs
}

// Profile validates the profile form. An empty email keeps the current one.
func Profile(email, bio string) (dtos.ProfileUpdate, Errors) {
	email = strings.TrimSpace(email)
	if email != "" && !govalidator.IsEmail(email) {
		return dtos.ProfileUpdate{}, Errors{"email": "Invalid email"}
	}
	return dtos.ProfileUpdate{Email: email, Bio: strings.TrimSpace(bio)}, Errors{}
}
