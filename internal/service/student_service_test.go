package service

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vconnect/portal-backend/internal/config"
	"github.com/vconnect/portal-backend/internal/model"
	"github.com/vconnect/portal-backend/internal/repository"
	"github.com/xuri/excelize/v2"
	"golang.org/x/crypto/bcrypt"
)

func buildSheet(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestParseStudentSheet(t *testing.T) {
	buf := buildSheet(t, [][]interface{}{
		{"roll_number", "name", "email", "guardian_phone"},
		{" CSE001 ", "Aarav Sharma", "Aarav@Example.com", "9876543210"},
		{"", "", ""},
		{"CSE002", "Diya Patel", "diya@example.com"},
	})

	rows, err := ParseStudentSheet(buf)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, StudentSheetRow{
		Row:           2,
		RollNumber:    "CSE001",
		Name:          "Aarav Sharma",
		Email:         "aarav@example.com",
		GuardianPhone: "9876543210",
	}, rows[0])
	assert.Equal(t, 4, rows[1].Row)
	assert.Empty(t, rows[1].GuardianPhone)
}

func TestParseStudentSheetRejectsNonXLSX(t *testing.T) {
	_, err := ParseStudentSheet(strings.NewReader("roll_number,name,email\n"))
	assert.ErrorIs(t, err, ErrInvalidSpreadsheet)
}

func TestScreenImportRows(t *testing.T) {
	svc := NewStudentService(nil, nil, nil, nil, nil)
	rows := []StudentSheetRow{
		{Row: 2, RollNumber: "CSE001", Name: "Aarav", Email: "aarav@example.com"},
		{Row: 3, RollNumber: "", Name: "No Roll", Email: "noroll@example.com"},
		{Row: 4, RollNumber: "CSE003", Name: "Bad Email", Email: "not-an-email"},
		{Row: 5, RollNumber: "cse001", Name: "Dup Roll", Email: "dup@example.com"},
		{Row: 6, RollNumber: "CSE006", Name: "Dup Email", Email: "aarav@example.com"},
		{Row: 7, RollNumber: "CSE007", Name: "Long Phone", Email: "phone@example.com", GuardianPhone: strings.Repeat("9", 21)},
		{Row: 8, RollNumber: "CSE008", Name: "Fine", Email: "fine@example.com"},
	}
	out := make([]model.ImportRowResult, len(rows))

	valid := svc.screenImportRows(rows, out)

	assert.Equal(t, []int{0, 6}, valid)
	assert.Equal(t, "missing roll number or name", out[1].Reason)
	assert.Equal(t, "invalid email", out[2].Reason)
	assert.Equal(t, "duplicate roll number in file", out[3].Reason)
	assert.Equal(t, "duplicate email in file", out[4].Reason)
	assert.Equal(t, "guardian phone too long", out[5].Reason)
	for _, i := range []int{1, 2, 3, 4, 5} {
		assert.Equal(t, ImportSkipped, out[i].Status)
		assert.Equal(t, rows[i].Row, out[i].Row)
	}
	assert.Empty(t, out[0].Status)
}

type memoryStudents struct {
	byID map[uuid.UUID]*model.Student
}

func (m *memoryStudents) GetByID(_ context.Context, id uuid.UUID) (*model.Student, error) {
	st, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return st, nil
}

func (m *memoryStudents) GetByUserID(context.Context, uuid.UUID) (*model.Student, error) {
	return nil, repository.ErrNotFound
}

func (m *memoryStudents) ListPaginated(context.Context, *uuid.UUID, string, int, int) ([]model.Student, int, error) {
	return nil, 0, nil
}

func (m *memoryStudents) Create(_ context.Context, u *model.User, st *model.Student) error {
	u.ID, st.ID = uuid.New(), uuid.New()
	st.UserID = u.ID
	m.byID[st.ID] = st
	return nil
}

func (m *memoryStudents) Update(_ context.Context, st *model.Student, _ string) error {
	if _, ok := m.byID[st.ID]; !ok {
		return repository.ErrNotFound
	}
	m.byID[st.ID] = st
	return nil
}

func (m *memoryStudents) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

type countingInvalidator struct{ calls int }

func (c *countingInvalidator) Invalidate(context.Context) { c.calls++ }

func TestStudentWritesInvalidateWorkload(t *testing.T) {
	mentor := uuid.New()
	store := &memoryStudents{byID: map[uuid.UUID]*model.Student{}}
	cache := &countingInvalidator{}
	auth := NewAuthService(&config.Config{BcryptCost: bcrypt.MinCost}, nil, nil)
	svc := NewStudentService(store, nil, fakeRoles{mentor: model.RoleFaculty}, auth, cache)
	ctx := context.Background()
	classID := uuid.NewString()

	unmentored, err := svc.Create(ctx, &model.CreateStudentRequest{
		RollNumber: "CSE001", Name: "Aarav Shah", Email: "aarav@example.com", ClassID: classID,
	})
	require.NoError(t, err)
	assert.Zero(t, cache.calls, "no mentor, no score changes")

	mentored, err := svc.Create(ctx, &model.CreateStudentRequest{
		RollNumber: "CSE002", Name: "Diya Patel", Email: "diya@example.com", ClassID: classID, MentorID: mentor.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, cache.calls)

	_, err = svc.Update(ctx, unmentored.ID, &model.UpdateStudentRequest{
		RollNumber: "CSE001", Name: "Aarav Shah", Email: "aarav@example.com", ClassID: classID, MentorID: mentor.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, cache.calls)

	require.NoError(t, svc.Delete(ctx, mentored.ID))
	assert.Equal(t, 3, cache.calls)

	assert.ErrorIs(t, svc.Delete(ctx, uuid.New()), repository.ErrNotFound)
	assert.Equal(t, 3, cache.calls, "failed writes keep the cache")
}
