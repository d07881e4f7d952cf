package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeUpdate(t *testing.T, body string) StaffUpdate {
	t.Helper()
	var u StaffUpdate
	require.NoError(t, json.Unmarshal([]byte(body), &u))
	return u
}

func TestStaffCreate_Validate(t *testing.T) {
	var c StaffCreate
	require.NoError(t, json.Unmarshal([]byte(`{
		"name": "Ravi", "email": " Ravi@LifeSave.org ", "phone": "9000000000",
		"sex": "MALE", "bloodGroup": "b+", "age": "31", "salary": 25000.5,
		"accountNumber": "123", "ifscCode": "SBIN0001", "bankName": "SBI"
	}`), &c))

	na, err := c.Validate()
	require.NoError(t, err)
	assert.Equal(t, "ravi@lifesave.org", na.Email)
	assert.Equal(t, RoleStaff, na.Role)
	require.NotNil(t, na.Sex)
	assert.Equal(t, SexMale, *na.Sex)
	require.NotNil(t, na.BloodGroup)
	assert.Equal(t, BloodBPos, *na.BloodGroup)
	require.NotNil(t, na.Age)
	assert.Equal(t, 31, *na.Age)
	require.NotNil(t, na.Salary)
	assert.Equal(t, 25000.5, *na.Salary)
	assert.Equal(t, "SBI", na.BankDetails.BankName)
}

func TestStaffCreate_InvalidSex(t *testing.T) {
	c := StaffCreate{Name: "Ravi", Email: "ravi@lifesave.org", Phone: "1", Sex: "robot"}
	_, err := c.Validate()

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "Invalid sex value. Must be male, female, or other.", ve.Message)
}

func TestStaffCreate_RejectsNonFiniteSalary(t *testing.T) {
	for _, raw := range []string{"NaN", "Inf", "+Infinity"} {
		c := StaffCreate{
			Name: "Ravi", Email: "ravi@lifesave.org", Phone: "9000000000",
			Salary: OptionalNumber{Set: true, Raw: raw},
		}
		_, err := c.Validate()

		var ve *ValidationError
		require.True(t, errors.As(err, &ve), raw)
		assert.Contains(t, ve.Fields, "salary", raw)
	}
}

func TestStaffCreate_RequiresIdentity(t *testing.T) {
	_, err := StaffCreate{}.Validate()

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Fields, "name")
	assert.Contains(t, ve.Fields, "email")
	assert.Contains(t, ve.Fields, "phone")
}

func TestStaffUpdate_AbsentNumbersAreNoChange(t *testing.T) {
	ch, err := decodeUpdate(t, `{"name":"New Name","age":null}`).Validate()
	require.NoError(t, err)
	assert.Nil(t, ch.Age)
	assert.Nil(t, ch.Salary)
	require.NotNil(t, ch.Name)
	assert.Equal(t, "New Name", *ch.Name)
}

func TestStaffUpdate_PresentButInvalidNumbersFail(t *testing.T) {
	for _, body := range []string{
		`{"age":"abc"}`, `{"age":""}`, `{"salary":"lots"}`, `{"age":30.5}`,
		`{"salary":"NaN"}`, `{"salary":"Inf"}`, `{"salary":"-Infinity"}`, `{"age":"NaN"}`,
	} {
		_, err := decodeUpdate(t, body).Validate()

		var ve *ValidationError
		assert.True(t, errors.As(err, &ve), body)
	}
}

func TestStaffUpdate_NumbersAcceptStringsAndNumbers(t *testing.T) {
	ch, err := decodeUpdate(t, `{"age":"40","salary":"1200.75"}`).Validate()
	require.NoError(t, err)
	assert.Equal(t, 40, *ch.Age)
	assert.Equal(t, 1200.75, *ch.Salary)

	ch, err = decodeUpdate(t, `{"age":41}`).Validate()
	require.NoError(t, err)
	assert.Equal(t, 41, *ch.Age)
}

func TestStaffUpdate_EmptyBloodGroupClears(t *testing.T) {
	ch, err := decodeUpdate(t, `{"bloodGroup":""}`).Validate()
	require.NoError(t, err)
	assert.True(t, ch.ClearBloodGroup)

	g := BloodAPos
	acc := ch.Apply(Account{BloodGroup: &g})
	assert.Nil(t, acc.BloodGroup)
}

func TestStaffUpdate_BankDetailsMergePerField(t *testing.T) {
	ch, err := decodeUpdate(t, `{"bankName":"HDFC"}`).Validate()
	require.NoError(t, err)

	acc := ch.Apply(Account{BankDetails: BankDetails{AccountNumber: "999", BankName: "SBI"}})
	assert.Equal(t, "999", acc.BankDetails.AccountNumber)
	assert.Equal(t, "HDFC", acc.BankDetails.BankName)
}

func TestStaffUpdate_InvalidSex(t *testing.T) {
	_, err := decodeUpdate(t, `{"sex":"x"}`).Validate()
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Fields, "sex")
}

func TestAccountJSONHidesPassword(t *testing.T) {
	b, err := json.Marshal(Account{ID: "a1", PasswordHash: "secret-hash"})
	require.NoError(t, err)
	assert.NotContains(t, string(b), "secret-hash")
}
