package domain

import (
	"strings"
	"time"

	"github.com/diagnosis/lifesave-bloodbank/internal/utils"
)

type BankDetails struct {
	AccountNumber string `json:"accountNumber,omitempty"`
	IFSCCode      string `json:"ifscCode,omitempty"`
	BankName      string `json:"bankName,omitempty"`
}

// Account is a staff or admin login. PasswordHash never leaves the server.
type Account struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"`
	Role         Role        `json:"role"`
	Phone        string      `json:"phone"`
	Whatsapp     string      `json:"whatsapp,omitempty"`
	Address      *Address    `json:"address,omitempty"`
	BloodGroup   *BloodGroup `json:"bloodGroup,omitempty"`
	Age          *int        `json:"age,omitempty"`
	Sex          *Sex        `json:"sex,omitempty"`
	BankDetails  BankDetails `json:"bankDetails"`
	Salary       *float64    `json:"salary,omitempty"`
	IsActive     bool        `json:"isActive"`
	CreatedAt    time.Time   `json:"createdAt"`
}

// PublicUser is the identity block returned by login.
type PublicUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

func (a *Account) Public() PublicUser {
	return PublicUser{ID: a.ID, Name: a.Name, Email: a.Email, Role: a.Role}
}

// StaffCreate is the admin's new-staff form.
type StaffCreate struct {
	Name          string         `json:"name"`
	Email         string         `json:"email"`
	Password      string         `json:"password"`
	Phone         string         `json:"phone"`
	Whatsapp      string         `json:"whatsapp"`
	Address       *Address       `json:"address"`
	BloodGroup    string         `json:"bloodGroup"`
	Age           OptionalNumber `json:"age"`
	Sex           string         `json:"sex"`
	AccountNumber string         `json:"accountNumber"`
	IFSCCode      string         `json:"ifscCode"`
	BankName      string         `json:"bankName"`
	Salary        OptionalNumber `json:"salary"`
}

// NewAccount is a validated account ready to persist, minus its password hash.
type NewAccount struct {
	Name        string
	Email       string
	Role        Role
	Phone       string
	Whatsapp    string
	Address     *Address
	BloodGroup  *BloodGroup
	Age         *int
	Sex         *Sex
	BankDetails BankDetails
	Salary      *float64
}

func (c StaffCreate) Validate() (*NewAccount, error) {
	v := &ValidationError{}
	na := &NewAccount{
		Name:     strings.TrimSpace(c.Name),
		Email:    utils.NormalizeEmail(c.Email),
		Role:     RoleStaff,
		Phone:    strings.TrimSpace(c.Phone),
		Whatsapp: strings.TrimSpace(c.Whatsapp),
		Address:  c.Address,
		BankDetails: BankDetails{
			AccountNumber: strings.TrimSpace(c.AccountNumber),
			IFSCCode:      strings.TrimSpace(c.IFSCCode),
			BankName:      strings.TrimSpace(c.BankName),
		},
	}

	if na.Name == "" {
		v.Add("name", "Name is required")
	}
	if na.Email == "" {
		v.Add("email", "Email is required")
	} else if !utils.IsValidEmail(na.Email) {
		v.Add("email", "Email is not valid")
	}
	if na.Phone == "" {
		v.Add("phone", "Phone is required")
	}

	if s := strings.TrimSpace(c.Sex); s != "" {
		sex, ok := ParseSex(s)
		if !ok {
			v.Add("sex", "Invalid sex value. Must be male, female, or other.")
		} else {
			na.Sex = &sex
		}
	}
	if s := strings.TrimSpace(c.BloodGroup); s != "" {
		g, ok := ParseBloodGroup(s)
		if !ok {
			v.Add("bloodGroup", "Invalid blood group")
		} else {
			na.BloodGroup = &g
		}
	}

	if age, ok, err := c.Age.Int("age"); err != nil {
		v.Add("age", "must be a whole number")
	} else if ok {
		na.Age = &age
	}
	if salary, ok, err := c.Salary.Float("salary"); err != nil {
		v.Add("salary", "must be a number")
	} else if ok {
		na.Salary = &salary
	}

	if err := v.OrNil(); err != nil {
		return nil, err
	}
	return na, nil
}

// StaffUpdate is a partial update. Absent fields are left unchanged.
type StaffUpdate struct {
	Name          OptionalString `json:"name"`
	Email         OptionalString `json:"email"`
	Password      OptionalString `json:"password"`
	Phone         OptionalString `json:"phone"`
	Whatsapp      OptionalString `json:"whatsapp"`
	Address       *Address       `json:"address"`
	BloodGroup    OptionalString `json:"bloodGroup"`
	Age           OptionalNumber `json:"age"`
	Sex           OptionalString `json:"sex"`
	AccountNumber OptionalString `json:"accountNumber"`
	IFSCCode      OptionalString `json:"ifscCode"`
	BankName      OptionalString `json:"bankName"`
	Salary        OptionalNumber `json:"salary"`
}

// StaffChanges is a validated StaffUpdate. Nil pointers mean "no change".
// ClearBloodGroup is set when the caller sent an empty blood group.
type StaffChanges struct {
	Name            *string
	Email           *string
	Password        *string
	Phone           *string
	Whatsapp        *string
	Address         *Address
	BloodGroup      *BloodGroup
	ClearBloodGroup bool
	Age             *int
	Sex             *Sex
	AccountNumber   *string
	IFSCCode        *string
	BankName        *string
	Salary          *float64
}

func (u StaffUpdate) Validate() (*StaffChanges, error) {
	v := &ValidationError{}
	ch := &StaffChanges{Address: u.Address}

	if u.Name.Set {
		name := strings.TrimSpace(u.Name.Value)
		if name == "" {
			v.Add("name", "Name cannot be empty")
		}
		ch.Name = &name
	}
	if u.Email.Set {
		email := utils.NormalizeEmail(u.Email.Value)
		if !utils.IsValidEmail(email) {
			v.Add("email", "Email is not valid")
		}
		ch.Email = &email
	}
	if u.Password.Set && u.Password.Value != "" {
		pw := u.Password.Value
		ch.Password = &pw
	}
	if u.Phone.Set {
		phone := strings.TrimSpace(u.Phone.Value)
		if phone == "" {
			v.Add("phone", "Phone cannot be empty")
		}
		ch.Phone = &phone
	}
	if u.Whatsapp.Set {
		w := strings.TrimSpace(u.Whatsapp.Value)
		ch.Whatsapp = &w
	}
	if u.BloodGroup.Set {
		if s := strings.TrimSpace(u.BloodGroup.Value); s == "" {
			ch.ClearBloodGroup = true
		} else if g, ok := ParseBloodGroup(s); ok {
			ch.BloodGroup = &g
		} else {
			v.Add("bloodGroup", "Invalid blood group")
		}
	}
	if u.Sex.Set {
		sex, ok := ParseSex(u.Sex.Value)
		if !ok {
			v.Add("sex", "Invalid sex value. Must be male, female, or other.")
		} else {
			ch.Sex = &sex
		}
	}
	if age, ok, err := u.Age.Int("age"); err != nil {
		v.Add("age", "must be a whole number")
	} else if ok {
		ch.Age = &age
	}
	if salary, ok, err := u.Salary.Float("salary"); err != nil {
		v.Add("salary", "must be a number")
	} else if ok {
		ch.Salary = &salary
	}
	if u.AccountNumber.Set {
		s := strings.TrimSpace(u.AccountNumber.Value)
		ch.AccountNumber = &s
	}
	if u.IFSCCode.Set {
		s := strings.TrimSpace(u.IFSCCode.Value)
		ch.IFSCCode = &s
	}
	if u.BankName.Set {
		s := strings.TrimSpace(u.BankName.Value)
		ch.BankName = &s
	}

	if err := v.OrNil(); err != nil {
		return nil, err
	}
	return ch, nil
}

// Apply merges the changes into a copy of acc.
func (ch *StaffChanges) Apply(acc Account) Account {
	if ch.Name != nil {
		acc.Name = *ch.Name
	}
	if ch.Email != nil {
		acc.Email = *ch.Email
	}
	if ch.Phone != nil {
		acc.Phone = *ch.Phone
	}
	if ch.Whatsapp != nil {
		acc.Whatsapp = *ch.Whatsapp
	}
	if ch.Address != nil {
		addr := *ch.Address
		acc.Address = &addr
	}
	if ch.ClearBloodGroup {
		acc.BloodGroup = nil
	} else if ch.BloodGroup != nil {
		g := *ch.BloodGroup
		acc.BloodGroup = &g
	}
	if ch.Age != nil {
		age := *ch.Age
		acc.Age = &age
	}
	if ch.Sex != nil {
		sex := *ch.Sex
		acc.Sex = &sex
	}
	if ch.Salary != nil {
		s := *ch.Salary
		acc.Salary = &s
	}
	if ch.AccountNumber != nil {
		acc.BankDetails.AccountNumber = *ch.AccountNumber
	}
	if ch.IFSCCode != nil {
		acc.BankDetails.IFSCCode = *ch.IFSCCode
	}
	if ch.BankName != nil {
		acc.BankDetails.BankName = *ch.BankName
	}
	return acc
}
