package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type BloodGroup string

const (
	BloodAPos  BloodGroup = "A+"
	BloodANeg  BloodGroup = "A-"
	BloodBPos  BloodGroup = "B+"
	BloodBNeg  BloodGroup = "B-"
	BloodABPos BloodGroup = "AB+"
	BloodABNeg BloodGroup = "AB-"
	BloodOPos  BloodGroup = "O+"
	BloodONeg  BloodGroup = "O-"
)

// BloodGroups lists every accepted group in histogram order.
var BloodGroups = []BloodGroup{BloodAPos, BloodANeg, BloodABPos, BloodABNeg, BloodBPos, BloodBNeg, BloodOPos, BloodONeg}

func ParseBloodGroup(s string) (BloodGroup, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, g := range BloodGroups {
		if string(g) == s {
			return g, true
		}
	}
	return "", false
}

type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
	SexOther  Sex = "other"
)

// ParseSex matches case-insensitively and returns the lowercase form.
func ParseSex(s string) (Sex, bool) {
	switch Sex(strings.ToLower(strings.TrimSpace(s))) {
	case SexMale:
		return SexMale, true
	case SexFemale:
		return SexFemale, true
	case SexOther:
		return SexOther, true
	default:
		return "", false
	}
}

type DonorStatus string

const (
	DonorPending  DonorStatus = "pending"
	DonorApproved DonorStatus = "approved"
	DonorRejected DonorStatus = "rejected"
)

func ParseDonorStatus(s string) (DonorStatus, bool) {
	switch DonorStatus(s) {
	case DonorPending, DonorApproved, DonorRejected:
		return DonorStatus(s), true
	default:
		return "", false
	}
}

type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
	Country string `json:"country"`
}

func (a Address) trimmed() Address {
	return Address{
		Street:  strings.TrimSpace(a.Street),
		City:    strings.TrimSpace(a.City),
		State:   strings.TrimSpace(a.State),
		Pincode: strings.TrimSpace(a.Pincode),
		Country: strings.TrimSpace(a.Country),
	}
}

// AttachmentKind names the two files every application carries.
type AttachmentKind string

const (
	AttachmentPhoto        AttachmentKind = "photo"
	AttachmentGovernmentID AttachmentKind = "governmentId"
)

// Attachment is a stored file. Listings never load Data.
type Attachment struct {
	Data        []byte
	ContentType string
	Filename    string
}

// Donor is a donor application as returned by the API. Attachment bytes are
// served separately through PhotoURL and GovernmentIDURL.
type Donor struct {
	ID              string      `json:"id"`
	FullName        string      `json:"fullName"`
	Phone           string      `json:"phone"`
	Whatsapp        string      `json:"whatsapp,omitempty"`
	Gmail           string      `json:"gmail,omitempty"`
	Address         Address     `json:"address"`
	BloodGroup      BloodGroup  `json:"bloodGroup"`
	Age             int         `json:"age"`
	Sex             Sex         `json:"sex"`
	PhotoURL        string      `json:"photoUrl"`
	GovernmentIDURL string      `json:"governmentIdUrl"`
	Status          DonorStatus `json:"status"`
	RejectionReason string      `json:"rejectionReason,omitempty"`
	ReviewedBy      *string     `json:"reviewedBy"`
	ReviewerName    string      `json:"reviewerName,omitempty"`
	ReviewedAt      *time.Time  `json:"reviewedAt"`
	SubmittedAt     time.Time   `json:"submittedAt"`
	ApprovedAt      *time.Time  `json:"approvedAt"`
	LastDonation    *time.Time  `json:"lastDonation"`
	TotalDonations  int         `json:"totalDonations"`
}

func PhotoURL(id string) string    { return "/api/donors/photo/" + id }
func DocumentURL(id string) string { return "/api/donors/document/" + id }

// Upload is an attachment as received, before type and size checks.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Data        []byte
}

// DonorRegistration holds the raw registration form.
type DonorRegistration struct {
	FullName     string
	Phone        string
	Whatsapp     string
	Gmail        string
	BloodGroup   string
	Age          string
	Sex          string
	Address      Address
	Photo        *Upload
	GovernmentID *Upload
}

// NewDonor is a validated registration ready to persist.
type NewDonor struct {
	FullName     string
	Phone        string
	Whatsapp     string
	Gmail        string
	Address      Address
	BloodGroup   BloodGroup
	Age          int
	Sex          Sex
	Photo        Attachment
	GovernmentID Attachment
}

const (
	MinDonorAge = 18
	MaxDonorAge = 65
)

// Validate checks every field and attachment. Field problems come back as
// *ValidationError, attachment type and size problems as *UploadError.
func (r DonorRegistration) Validate(maxUploadBytes int64) (*NewDonor, error) {
	v := &ValidationError{}

	nd := &NewDonor{
		FullName: strings.TrimSpace(r.FullName),
		Phone:    strings.TrimSpace(r.Phone),
		Whatsapp: strings.TrimSpace(r.Whatsapp),
		Gmail:    strings.TrimSpace(r.Gmail),
		Address:  r.Address.trimmed(),
	}

	required := map[string]string{
		"fullName":   nd.FullName,
		"phone":      nd.Phone,
		"bloodGroup": strings.TrimSpace(r.BloodGroup),
		"age":        strings.TrimSpace(r.Age),
		"sex":        strings.TrimSpace(r.Sex),
	}
	for _, field := range []string{"fullName", "phone", "bloodGroup", "age", "sex"} {
		if required[field] == "" {
			v.Add(field, "Required fields are missing")
		}
	}

	if s := required["bloodGroup"]; s != "" {
		g, ok := ParseBloodGroup(s)
		if !ok {
			v.Add("bloodGroup", "Invalid blood group")
		}
		nd.BloodGroup = g
	}

	if s := required["age"]; s != "" {
		age, err := strconv.Atoi(s)
		switch {
		case err != nil:
			v.Add("age", "Age must be a whole number")
		case age < MinDonorAge || age > MaxDonorAge:
			v.Add("age", fmt.Sprintf("Age must be between %d and %d", MinDonorAge, MaxDonorAge))
		}
		nd.Age = age
	}

	if s := required["sex"]; s != "" {
		sex, ok := ParseSex(s)
		if !ok {
			v.Add("sex", "Invalid sex value")
		}
		nd.Sex = sex
	}

	a := nd.Address
	addrFields := []struct{ name, value string }{
		{"address.street", a.Street},
		{"address.city", a.City},
		{"address.state", a.State},
		{"address.pincode", a.Pincode},
		{"address.country", a.Country},
	}
	for _, f := range addrFields {
		if f.value == "" {
			v.Add(f.name, "All address fields are required")
		}
	}
	if a.Pincode != "" && !isPincode(a.Pincode) {
		v.Add("address.pincode", "Pincode must be exactly 6 digits")
	}

	if r.Photo == nil || r.GovernmentID == nil {
		if r.Photo == nil {
			v.Add("photo", "Both photo and government ID are required")
		}
		if r.GovernmentID == nil {
			v.Add("governmentId", "Both photo and government ID are required")
		}
	}

	if err := v.OrNil(); err != nil {
		return nil, err
	}

	photo, err := r.Photo.accept(AttachmentPhoto, maxUploadBytes)
	if err != nil {
		return nil, err
	}
	doc, err := r.GovernmentID.accept(AttachmentGovernmentID, maxUploadBytes)
	if err != nil {
		return nil, err
	}
	nd.Photo = photo
	nd.GovernmentID = doc
	return nd, nil
}

// CheckUpload applies the per-field type and size rules.
func CheckUpload(kind AttachmentKind, contentType string, size, maxBytes int64) error {
	if maxBytes > 0 && size > maxBytes {
		return &UploadError{Field: string(kind), Reason: fmt.Sprintf("File too large. Maximum size is %dMB.", maxBytes/(1024*1024))}
	}
	ct := strings.ToLower(strings.TrimSpace(contentType))
	switch kind {
	case AttachmentPhoto:
		if !strings.HasPrefix(ct, "image/") {
			return &UploadError{Field: string(kind), Reason: "Profile photo must be an image"}
		}
	case AttachmentGovernmentID:
		if !strings.HasPrefix(ct, "image/") && ct != "application/pdf" {
			return &UploadError{Field: string(kind), Reason: "Government ID must be an image or PDF"}
		}
	default:
		return &UploadError{Field: string(kind), Reason: "Invalid file field"}
	}
	return nil
}

func (u *Upload) accept(kind AttachmentKind, maxBytes int64) (Attachment, error) {
	size := u.Size
	if size < int64(len(u.Data)) {
		size = int64(len(u.Data))
	}
	if err := CheckUpload(kind, u.ContentType, size, maxBytes); err != nil {
		return Attachment{}, err
	}
	name := strings.TrimSpace(u.Filename)
	if name == "" {
		name = string(kind)
	}
	return Attachment{Data: u.Data, ContentType: u.ContentType, Filename: name}, nil
}

func isPincode(s string) bool {
	if len(s) != 6 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
