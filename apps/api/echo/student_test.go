package echoapi

import (
	"context"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/kulliya/core/billing"
	"github.com/trezcool/kulliya/core/student"
	"github.com/trezcool/kulliya/core/user"
	inmemdb "github.com/trezcool/kulliya/storage/database/inmem"
)

func intPtr(i int) *int { return &i }

func newApplication(email string, collegeID int) student.Application {
	return student.Application{
		ApplicationNumber: "APP-2024-0042",
		FirstName:         "Amina",
		LastName:          "Yusuf",
		Email:             email,
		CollegeID:         intPtr(collegeID),
		MajorID:           intPtr(7),
	}
}

func TestStudentAPI_createFromApplication_Auth(t *testing.T) {
	env := setup(t)
	body := student.ConvertApplication{Application: newApplication("amina@test.cd", 1)}
	path := "/v1/students/from-application"

	rec := env.do(http.MethodPost, path, "", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	stud := user.User{ID: "s1", Email: "s@test.cd", Roles: []string{user.RoleStudent}, IsActive: true}
	rec = env.do(http.MethodPost, path, env.token(t, stud), body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// admins without an admissions role
	plainAdmin := user.User{ID: "a1", Email: "a@test.cd", Roles: []string{user.RoleAdmin}, IsActive: true}
	rec = env.do(http.MethodPost, path, env.token(t, plainAdmin), body)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestStudentAPI_createFromApplication(t *testing.T) {
	env := setup(t)
	token := env.token(t, env.admin)
	path := "/v1/students/from-application"

	rec := env.do(http.MethodPost, path, token, student.ConvertApplication{Application: newApplication("Amina@Test.cd", 1)})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var res student.ConversionResult
	decode(t, rec, &res)
	assert.True(t, res.Success)
	assert.False(t, res.AlreadyExists)
	require.NotNil(t, res.Student)
	assert.Equal(t, "STU20240001", res.Student.StudentID)
	assert.Equal(t, "amina@test.cd", res.Student.Email)
	assert.Equal(t, "TempSTU20240001@2024", res.Password)
	assert.Empty(t, res.Warnings)

	// the student can log in with the temporary password
	rec = env.do(http.MethodPost, "/v1/users/login", "", LoginRequest{Email: "amina@test.cd", Password: res.Password})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// same email again: nothing is created
	rec = env.do(http.MethodPost, path, token, student.ConvertApplication{Application: newApplication("amina@test.cd", 2)})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var again student.ConversionResult
	decode(t, rec, &again)
	assert.True(t, again.AlreadyExists)
	assert.False(t, again.Success)
	require.NotNil(t, again.Student)
	assert.Equal(t, "STU20240001", again.Student.StudentID)

	// next student of the college gets the next sequence
	rec = env.do(http.MethodPost, path, token, student.ConvertApplication{
		Application: newApplication("omar@test.cd", 1),
		Password:    "Own!passw0rd",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var second student.ConversionResult
	decode(t, rec, &second)
	assert.Equal(t, "STU20240002", second.Student.StudentID)
	assert.Equal(t, "Own!passw0rd", second.Password)

	rec = env.do(http.MethodGet, "/v1/students/STU20240002", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var st student.Student
	decode(t, rec, &st)
	assert.Equal(t, "omar@test.cd", st.Email)

	rec = env.do(http.MethodGet, "/v1/students/STU20249999", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStudentAPI_createFromApplication_Errors(t *testing.T) {
	env := setup(t)
	token := env.token(t, env.admin)
	path := "/v1/students/from-application"

	noCollege := newApplication("a@test.cd", 1)
	noCollege.CollegeID = nil
	noMajor := newApplication("b@test.cd", 1)
	noMajor.MajorID = nil
	noName := newApplication("c@test.cd", 1)
	noName.FirstName = "  "
	badDate := newApplication("d@test.cd", 1)
	badDate.DateOfBirth = "10/03/2001"

	tests := []struct {
		name      string
		body      student.ConvertApplication
		wantCode  int
		wantField string
	}{
		{"missing college", student.ConvertApplication{Application: noCollege}, http.StatusBadRequest, "college_id"},
		{"missing major", student.ConvertApplication{Application: noMajor}, http.StatusBadRequest, "major_id"},
		{"blank first name", student.ConvertApplication{Application: noName}, http.StatusBadRequest, "first_name"},
		{"invalid date of birth", student.ConvertApplication{Application: badDate}, http.StatusBadRequest, "date_of_birth"},
		{"short password", student.ConvertApplication{Application: newApplication("e@test.cd", 1), Password: "short"}, http.StatusBadRequest, "password"},
		{"unknown college", student.ConvertApplication{Application: newApplication("f@test.cd", 99)}, http.StatusNotFound, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(http.MethodPost, path, token, tc.body)
			if rec.Code != tc.wantCode {
				t.Fatalf("createFromApplication() code = %v; want %v (%s)", rec.Code, tc.wantCode, rec.Body.String())
			}
			if tc.wantField != "" {
				var fields map[string]string
				decode(t, rec, &fields)
				assert.Contains(t, fields, tc.wantField)
			}
		})
	}
}

func TestStudentAPI_createFromApplication_RetroactiveBilling(t *testing.T) {
	env := setup(t)
	token := env.token(t, env.admin)

	paidAt := time.Date(2024, time.February, 1, 10, 0, 0, 0, time.UTC)
	app := newApplication("paid@test.cd", 2)
	app.RegistrationFeeAmount = decimal.NewNullDecimal(decimal.RequireFromString("150.00"))
	app.RegistrationFeePaidAt = &paidAt

	rec := env.do(http.MethodPost, "/v1/students/from-application", token, student.ConvertApplication{Application: app})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var res student.ConversionResult
	decode(t, rec, &res)
	assert.Equal(t, "MED-2024-00100", res.Student.StudentID)
	assert.Empty(t, res.Warnings)

	invoices, err := inmemdb.NewBillingRepository(env.db).ListStudentInvoices(context.Background(), res.Student.ID)
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.Equal(t, billing.InvoiceTypeAdmissionFee, invoices[0].InvoiceType)
	assert.Equal(t, billing.InvoiceStatusPaid, invoices[0].Status)
	assert.True(t, invoices[0].TotalAmount.Equal(decimal.RequireFromString("150")))
}

func TestStudentAPI_acceptApplication(t *testing.T) {
	env := setup(t)
	token := env.token(t, env.admin)

	pending := env.db.AddApplication(newApplication("pending@test.cd", 1))
	rejected := newApplication("rejected@test.cd", 1)
	rejected.Status = student.ApplicationRejected
	rejected = env.db.AddApplication(rejected)

	rec := env.do(http.MethodPost, "/v1/applications/"+strconv.Itoa(pending.ID)+"/accept", token, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var res student.ConversionResult
	decode(t, rec, &res)
	assert.Equal(t, "STU20240001", res.Student.StudentID)

	app, err := inmemdb.NewStudentRepository(env.db).GetApplication(context.Background(), pending.ID)
	require.NoError(t, err)
	assert.Equal(t, student.ApplicationAccepted, app.Status)

	// accepting twice is harmless
	rec = env.do(http.MethodPost, "/v1/applications/"+strconv.Itoa(pending.ID)+"/accept", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(http.MethodPost, "/v1/applications/"+strconv.Itoa(rejected.ID)+"/accept", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	rec = env.do(http.MethodPost, "/v1/applications/404/accept", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(http.MethodPost, "/v1/applications/abc/accept", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStudentAPI_nextStudentID(t *testing.T) {
	env := setup(t)
	token := env.token(t, env.admin)

	tests := []struct {
		name     string
		path     string
		wantCode int
		wantID   string
	}{
		{"default settings", "/v1/colleges/1/student-ids/next", http.StatusOK, "STU20240001"},
		{"custom settings", "/v1/colleges/2/student-ids/next", http.StatusOK, "MED-2024-00100"},
		{"unsupported format", "/v1/colleges/3/student-ids/next", http.StatusUnprocessableEntity, ""},
		{"unknown college", "/v1/colleges/99/student-ids/next", http.StatusNotFound, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(http.MethodGet, tc.path, token, nil)
			require.Equal(t, tc.wantCode, rec.Code, rec.Body.String())
			if tc.wantID != "" {
				var res NextStudentIDResponse
				decode(t, rec, &res)
				assert.Equal(t, tc.wantID, res.StudentID)
			}
		})
	}
}
