package academic

import (
	"time"

	"github.com/volatiletech/null/v8"
)

// Roles
const (
	RoleAdmin Role = iota
	RoleLecturer
	RoleStudent
	RoleHOD
	RoleExaminer
)

var Roles = []Role{RoleAdmin, RoleLecturer, RoleStudent, RoleHOD, RoleExaminer}

type Role int

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "Admin"
	case RoleLecturer:
		return "Lecturer"
	case RoleStudent:
		return "Student"
	case RoleHOD:
		return "HOD"
	case RoleExaminer:
		return "Examiner"
	}
	return "Unknown"
}

type (
	Semester struct {
		ID           int       `json:"id"`
		SemesterCode string    `json:"semesterCode"`
		AcademicYear int       `json:"academicYear"`
		StartDate    time.Time `json:"startDate"`
		EndDate      time.Time `json:"endDate"`
	}

	Class struct {
		ID           int       `json:"id"`
		ClassCode    string    `json:"classCode"`
		CourseName   string    `json:"courseName"`
		SemesterName string    `json:"semesterName"` // free text, fuzzily matched against Semester.SemesterCode
		LecturerName string    `json:"lecturerName"`
		StudentCount int       `json:"studentCount"`
		CreatedAt    time.Time `json:"createdAt"`
	}

	CourseElement struct {
		ID               int      `json:"id"`
		Name             string   `json:"name"`
		Description      string   `json:"description"`
		ElementType      null.Int `json:"elementType"` // 0: assignment, 1: lab, 2: practical exam
		SemesterCourseID int      `json:"semesterCourseId"`
	}

	AssessmentTemplate struct {
		ID                int      `json:"id"`
		Name              string   `json:"name"`
		Description       string   `json:"description"`
		CourseElementID   int      `json:"courseElementId"`
		CourseElementName string   `json:"courseElementName"`
		AssignRequestID   null.Int `json:"assignRequestId"`
		LecturerName      string   `json:"lecturerName"`
	}

	ClassAssessment struct {
		ID                     int       `json:"id"`
		ClassID                int       `json:"classId"`
		ClassCode              string    `json:"classCode"`
		CourseName             string    `json:"courseName"`
		AssessmentTemplateID   int       `json:"assessmentTemplateId"`
		AssessmentTemplateName string    `json:"assessmentTemplateName"`
		StartAt                null.Time `json:"startAt"`
		EndAt                  null.Time `json:"endAt"`
		SubmissionCount        int       `json:"submissionCount"`
	}

	GradingGroup struct {
		ID                     int         `json:"id"`
		LecturerID             int         `json:"lecturerId"`
		LecturerName           string      `json:"lecturerName"`
		AssessmentTemplateID   int         `json:"assessmentTemplateId"`
		AssessmentTemplateName string      `json:"assessmentTemplateName"`
		SubmissionCount        int         `json:"submissionCount"`
		SubmittedGradeSheetURL null.String `json:"submittedGradeSheetUrl"`
		GradeSheetSubmittedAt  null.Time   `json:"gradeSheetSubmittedAt"`
		CreatedAt              time.Time   `json:"createdAt"`
	}

	SubmissionFile struct {
		ID            int    `json:"id"`
		Name          string `json:"name"`
		SubmissionURL string `json:"submissionUrl"`
	}

	Submission struct {
		ID             int             `json:"id"`
		StudentID      int             `json:"studentId"`
		StudentCode    string          `json:"studentCode"`
		StudentName    string          `json:"studentName"`
		GradingGroupID null.Int        `json:"gradingGroupId"`
		SubmittedAt    null.Time       `json:"submittedAt"`
		LastGrade      float64         `json:"lastGrade"`
		SubmissionFile *SubmissionFile `json:"submissionFile"`
	}

	Account struct {
		ID          int         `json:"id"`
		AccountCode string      `json:"accountCode"`
		FullName    string      `json:"fullName"`
		Email       string      `json:"email"`
		Role        Role        `json:"role"`
		Gender      int         `json:"gender"`
		DateOfBirth null.Time   `json:"dateOfBirth"`
		Avatar      null.String `json:"avatar"`
		PhoneNumber null.String `json:"phoneNumber"`
	}

	AssignRequest struct {
		ID                 int       `json:"id"`
		Status             int       `json:"status"` // raw upstream status: 1..5
		Message            string    `json:"message"`
		CourseElementID    int       `json:"courseElementId"`
		CourseElementName  string    `json:"courseElementName"`
		AssignedLecturerID int       `json:"assignedLecturerId"`
		AssignedByHODID    int       `json:"assignedByHODId"`
		SemesterCode       string    `json:"semesterCode"`
		CreatedAt          time.Time `json:"createdAt"`
	}

	Paper struct {
		ID                   int    `json:"id"`
		Name                 string `json:"name"`
		Description          string `json:"description"`
		AssessmentTemplateID int    `json:"assessmentTemplateId"`
	}

	Question struct {
		ID                   int      `json:"id"`
		QuestionNumber       null.Int `json:"questionNumber"`
		QuestionText         string   `json:"questionText"`
		QuestionSampleInput  string   `json:"questionSampleInput"`
		QuestionSampleOutput string   `json:"questionSampleOutput"`
		Score                float64  `json:"score"`
		AssessmentPaperID    int      `json:"assessmentPaperId"`
	}

	RubricItem struct {
		ID                   int     `json:"id"`
		Description          string  `json:"description"`
		Input                string  `json:"input"`
		Output               string  `json:"output"`
		Score                float64 `json:"score"`
		AssessmentQuestionID int     `json:"assessmentQuestionId"`
	}

	TemplateFile struct {
		ID      int    `json:"id"`
		Name    string `json:"name"`
		FileURL string `json:"fileUrl"`
	}
)

// IsActive reports whether `now` falls in [StartDate, EndDate].
func (s Semester) IsActive(now time.Time) bool {
	return !now.Before(s.StartDate) && !now.After(s.EndDate)
}

// HasStarted reports whether the semester started at or before `now`.
func (s Semester) HasStarted(now time.Time) bool {
	return !now.Before(s.StartDate)
}

// Completed reports whether the lecturer submitted the group's grade sheet.
func (g GradingGroup) Completed() bool {
	return (g.SubmittedGradeSheetURL.Valid && g.SubmittedGradeSheetURL.String != "") || g.GradeSheetSubmittedAt.Valid
}

// FileURL returns the submission file URL, if any.
func (s Submission) FileURL() (string, bool) {
	if s.SubmissionFile == nil || s.SubmissionFile.SubmissionURL == "" {
		return "", false
	}
	return s.SubmissionFile.SubmissionURL, true
}
