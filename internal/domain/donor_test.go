package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const maxUpload = 5 * 1024 * 1024

func validRegistration() DonorRegistration {
	return DonorRegistration{
		FullName:   " Asha Rao ",
		Phone:      "9990001111",
		Gmail:      "asha@example.org",
		BloodGroup: "O+",
		Age:        "24",
		Sex:        "Female",
		Address: Address{
			Street:  "12 MG Road",
			City:    "Bengaluru",
			State:   "Karnataka",
			Pincode: "560001",
			Country: "India",
		},
		Photo:        &Upload{Filename: "asha.png", ContentType: "image/png", Data: []byte("png")},
		GovernmentID: &Upload{Filename: "id.pdf", ContentType: "application/pdf", Data: []byte("%PDF")},
	}
}

func TestDonorRegistration_Valid(t *testing.T) {
	nd, err := validRegistration().Validate(maxUpload)
	require.NoError(t, err)

	assert.Equal(t, "Asha Rao", nd.FullName)
	assert.Equal(t, BloodOPos, nd.BloodGroup)
	assert.Equal(t, 24, nd.Age)
	assert.Equal(t, SexFemale, nd.Sex)
	assert.Equal(t, "asha.png", nd.Photo.Filename)
	assert.Equal(t, "application/pdf", nd.GovernmentID.ContentType)
}

func TestDonorRegistration_AgeBounds(t *testing.T) {
	for _, age := range []string{"17", "66", "0", "-3", "200"} {
		r := validRegistration()
		r.Age = age
		_, err := r.Validate(maxUpload)

		var ve *ValidationError
		require.True(t, errors.As(err, &ve), "age %s", age)
		assert.Contains(t, ve.Fields, "age")
	}

	for _, age := range []int{MinDonorAge, MaxDonorAge} {
		r := validRegistration()
		r.Age = fmt.Sprint(age)
		_, err := r.Validate(maxUpload)
		assert.NoError(t, err, "age %d", age)
	}
}

func TestDonorRegistration_AgeOutOfRangeWinsOverOtherFields(t *testing.T) {
	r := validRegistration()
	r.Age = "70"
	r.Photo = &Upload{Filename: "x.txt", ContentType: "text/plain"}

	_, err := r.Validate(maxUpload)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "Age must be between 18 and 65", ve.Fields["age"])
}

func TestDonorRegistration_NonIntegerAge(t *testing.T) {
	r := validRegistration()
	r.Age = "24.5"
	_, err := r.Validate(maxUpload)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Fields, "age")
}

func TestDonorRegistration_MissingAttachment(t *testing.T) {
	for _, drop := range []string{"photo", "governmentId"} {
		r := validRegistration()
		if drop == "photo" {
			r.Photo = nil
		} else {
			r.GovernmentID = nil
		}
		_, err := r.Validate(maxUpload)

		var ve *ValidationError
		require.True(t, errors.As(err, &ve), drop)
		assert.Equal(t, "Both photo and government ID are required", ve.Fields[drop])
	}
}

func TestDonorRegistration_RequiredFields(t *testing.T) {
	r := validRegistration()
	r.FullName = "   "
	r.Address.City = ""
	_, err := r.Validate(maxUpload)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "Required fields are missing", ve.Message)
	assert.Contains(t, ve.Fields, "fullName")
	assert.Contains(t, ve.Fields, "address.city")
}

func TestDonorRegistration_EnumChecks(t *testing.T) {
	r := validRegistration()
	r.Sex = "unknown"
	r.BloodGroup = "C+"
	_, err := r.Validate(maxUpload)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Fields, "sex")
	assert.Contains(t, ve.Fields, "bloodGroup")
}

func TestDonorRegistration_Pincode(t *testing.T) {
	for _, pin := range []string{"56000", "5600011", "56O001"} {
		r := validRegistration()
		r.Address.Pincode = pin
		_, err := r.Validate(maxUpload)

		var ve *ValidationError
		require.True(t, errors.As(err, &ve), pin)
		assert.Contains(t, ve.Fields, "address.pincode")
	}
}

func TestDonorRegistration_UploadRejected(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*DonorRegistration)
		reason string
	}{
		{
			name:   "photo not image",
			mutate: func(r *DonorRegistration) { r.Photo.ContentType = "application/pdf" },
			reason: "Profile photo must be an image",
		},
		{
			name:   "id not image or pdf",
			mutate: func(r *DonorRegistration) { r.GovernmentID.ContentType = "text/plain" },
			reason: "Government ID must be an image or PDF",
		},
		{
			name:   "too large",
			mutate: func(r *DonorRegistration) { r.Photo.Size = maxUpload + 1 },
			reason: "File too large. Maximum size is 5MB.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRegistration()
			tt.mutate(&r)
			_, err := r.Validate(maxUpload)

			var ue *UploadError
			require.True(t, errors.As(err, &ue))
			assert.Equal(t, tt.reason, ue.Reason)

			var ve *ValidationError
			assert.False(t, errors.As(err, &ve), "upload failures are not field validation failures")
		})
	}
}

func TestCheckUpload_UnknownField(t *testing.T) {
	err := CheckUpload(AttachmentKind("resume"), "image/png", 10, maxUpload)
	var ue *UploadError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, "Invalid file field", ue.Reason)
}

func TestParseSex(t *testing.T) {
	s, ok := ParseSex(" MALE ")
	assert.True(t, ok)
	assert.Equal(t, SexMale, s)

	_, ok = ParseSex("m")
	assert.False(t, ok)
}
