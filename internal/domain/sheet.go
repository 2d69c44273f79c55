package domain

import (
	"strconv"
	"time"
)

// Attendance sheet geometry
const (
	SheetRows    = 250
	SheetColumns = 5
	StatusColumn = "D"
)

// AttendanceHeader is the first row of every daily sheet
var AttendanceHeader = []string{"Title", "Name", "Department", "Status", "User ID"}

// userIDIndex is the zero-based column holding the user id (column E)
const userIDIndex = 4

// Day identifies the workbook and sheet for a calendar day
type Day struct {
	Date time.Time
}

// BookName returns the monthly workbook name, e.g. Attendance_Oct2026
func (d Day) BookName() string {
	return "Attendance_" + d.Date.Format("Jan2006")
}

// SheetName returns the daily sheet name, e.g. 16Oct
func (d Day) SheetName() string {
	return d.Date.Format("02Jan")
}

// AttendanceRow renders a user as a sheet row with an empty status
func AttendanceRow(u User) []string {
	return []string{u.Title, u.Name, u.Department, "", strconv.FormatInt(u.UserID, 10)}
}

// RowUserID returns the user id stored in a sheet row, if any
func RowUserID(row []string) (int64, bool) {
	if len(row) <= userIDIndex {
		return 0, false
	}
	id, err := strconv.ParseInt(row[userIDIndex], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// StatusCell returns the A1 address of the status cell for a 1-based row
func StatusCell(row int) string {
	return StatusColumn + strconv.Itoa(row)
}
