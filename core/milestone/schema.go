package milestone

import (
	"github.com/pkg/errors"
)

// FieldKind is the value type of a schema field.
type FieldKind string

const (
	KindDate     FieldKind = "date"
	KindDateTime FieldKind = "datetime"
	KindEmail    FieldKind = "email"
	KindText     FieldKind = "text"
	KindURL      FieldKind = "url"
	KindBool     FieldKind = "bool"
	KindSelect   FieldKind = "select"
)

const (
	FieldTermStartDate  = "term_start_date"
	FieldStartTime      = "start_time"
	FieldCompletionTime = "completion_time"
	FieldEmail          = "email"
	FieldName           = "name"
	FieldAcademicPeriod = "academic_period"
	FieldComments       = "additional_comments"
)

type (
	FieldOptions struct {
		Min       *int     `json:"min,omitempty"`
		Max       *int     `json:"max,omitempty"`
		Pattern   string   `json:"pattern,omitempty"`
		Values    []string `json:"values,omitempty"`
		Default   string   `json:"default,omitempty"`
		MaxSelect int      `json:"maxSelect,omitempty"`
	}

	FieldSpec struct {
		Name        string       `json:"name"`
		Kind        FieldKind    `json:"kind"`
		Required    bool         `json:"required"`
		Description string       `json:"description,omitempty"`
		Options     FieldOptions `json:"options"`
	}
)

func text(name, desc string) FieldSpec {
	return FieldSpec{Name: name, Kind: KindText, Description: desc}
}

func check(name, desc string) FieldSpec {
	return FieldSpec{Name: name, Kind: KindBool, Description: desc}
}

var (
	leadingFields = []FieldSpec{
		{Name: FieldTermStartDate, Kind: KindDate, Required: true, Description: "The start date of the teaching period"},
		{Name: FieldStartTime, Kind: KindDateTime, Description: "Time the checklist was opened"},
		{Name: FieldCompletionTime, Kind: KindDateTime, Description: "Completion time of the milestone"},
		{Name: FieldEmail, Kind: KindEmail, Description: "User's email address"},
		text(FieldName, "User's full name"),
		text("subject_coordinator", "Name of the subject coordinator"),
		text("subject_code_and_name", "Subject code and name"),
		{Name: "subject_lms_link", Kind: KindURL, Description: "URL to the subject in the Learning Management System"},
	}

	trailingFields = []FieldSpec{
		text(FieldComments, "Additional comments"),
		{
			Name: FieldAcademicPeriod,
			Kind: KindSelect,
			Options: FieldOptions{
				Values:    []string{string(RegimeTerm), string(RegimeSemester)},
				Default:   string(RegimeTerm),
				MaxSelect: 1,
			},
			Description: "Calendar basis of the teaching period",
		},
	}

	checklists = map[ID][]FieldSpec{
		Milestone1: {
			check("Verify_Assessments_Weightings_2Weeks", "Verify assessments, weightings, types and hurdles match CourseLoop."),
			check("Ensure_LMS_Access_2Weeks", "Ensure the LMS site allows student access, and access is removed 12 months after the final grade."),
			check("Setup_Welcome_Message_LMS_2Weeks", "Set up the Welcome message on the LMS homepage, with learning materials and the latest Subject Learning Guide."),
			check("Add_Teaching_Team_Contact_1Week", "Add teaching team contact details, including role, title, portrait and bio."),
			check("Add_Welcome_Post_1Week", "Add a Welcome post to Announcements."),
			check("Add_Introduce_Yourself_Post_1Week", "Add an Introduce Yourself discussion or Padlet post."),
			check("Verify_Timetable_Accuracy_By_Week1", "Verify timetable accuracy in Allocate+ and schedule the live online sessions."),
			check("Schedule_Student_Consults_By_Week1", "Schedule weekly live student consults, preferably in break time or after hours."),
			check("Ensure_First_Assessment_Details_By_Week1", "Prepare the first assessment details, including Turnitin enabled submission folders with grades and rubrics."),
			check("Engage_Forums_Respond_2Days_Initial_Weeks", "Engage regularly on forums and respond to students within 2 business days."),
			check("Add_Weekly_Overview_Post_Beginning_Week1", "Add a weekly overview post to Announcements, summarising key points and upcoming learning."),
			check("Upload_Live_Session_Recording_2Days", "Upload live session recording links to the LMS within 2 business days."),
			check("post_assignment_reminder", "Weeks 2 & 3: post an assessment and support reminder to Announcements a week before the due date."),
			check("accommodate_lap_requirements", "Weeks 2 & 3: accommodate student LAP requirements (quizzes, resources, delivery, communications)."),
		},
		Milestone2: {
			check("respond_in_2_days", "Weeks 2 & 3: engage on forums and respond to students within 2 business days."),
			check("add_weekly_overview", "Weeks 2 & 3: add a weekly overview post to Announcements."),
			check("upload_live_session", "Weeks 2 & 3: upload live session recording links within 2 business days (1 day for Term subjects)."),
			check("ensure_lms_materials_ready", "Weeks 2 & 3: ensure LMS materials are ready each week and compliant."),
			check("ensure_remaining_assessments", "Weeks 2 & 3: ensure assessment details and submission folders are set up."),
			check("post_assignment_reminder", "Weeks 2 & 3: post an assessment and support reminder to Announcements a week before the due date."),
			check("accommodate_lap_requirements", "Weeks 2 & 3: accommodate student LAP requirements (quizzes, resources, delivery, communications)."),
		},
		Milestone3: {
			check("Engage_Forums_Respond_2Days_Weeks_4_5_6", "Engage regularly on forums and respond to students within 2 business days."),
			check("Add_Weekly_Overview_Post_Weeks_4_5_6", "Add a weekly overview post to Announcements, including live session reminders."),
			check("Upload_Live_Session_Recording_2Days_Weeks_4_5_6", "Upload live session recording links within 2 business days (1 day for Term subjects)."),
			check("Ensure_LMS_Materials_Ready_Weeks_4_5_6", "Ensure the remaining LMS materials are ready each week and copyright compliant."),
			check("Ensure_Remaining_Assessments_Weeks_4_5_6", "Ensure remaining assessment details are available, with Turnitin enabled folders, grades and rubrics."),
			check("Post_Assessment_Reminder_Weeks_4_5_6", "Post an assessment and support reminder to Announcements a week before the due date."),
			check("Accommodate_LAP_Requirements_Weeks_4_5_6", "Accommodate student LAP requirements (quizzes, resources, delivery, communications)."),
			check("Add_SFS_Survey_Weeks_5_6", "Add the SFS survey to an Announcement post and the live session slides."),
			check("Post_End_Of_Subject_Review_Week_6", "Post the end of subject review and well wishes to students."),
			check("Hide_LMS_Exam_Grades_Week_6", "Hide LMS exam grades, final marks and rubrics, and lock discussions at the end of the term."),
		},
	}

	registry = buildRegistry()
)

func buildRegistry() map[ID][]FieldSpec {
	reg := make(map[ID][]FieldSpec, len(checklists))
	for id, checks := range checklists {
		flds := make([]FieldSpec, 0, len(leadingFields)+len(checks)+len(trailingFields))
		flds = append(flds, leadingFields...)
		flds = append(flds, checks...)
		flds = append(flds, trailingFields...)
		reg[id] = flds
	}
	return reg
}

// FieldsFor returns a copy of the ordered field definitions of a milestone.
func FieldsFor(id ID) ([]FieldSpec, error) {
	flds, ok := registry[id]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownMilestone, "%q", id)
	}
	out := make([]FieldSpec, len(flds))
	copy(out, flds)
	return out, nil
}

// Field looks up a single field definition of a milestone.
func Field(id ID, name string) (FieldSpec, bool) {
	for _, f := range registry[id] {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// BooleanFields returns the names of the checklist fields of a milestone, in order.
func BooleanFields(id ID) []string {
	var names []string
	for _, f := range registry[id] {
		if f.Kind == KindBool {
			names = append(names, f.Name)
		}
	}
	return names
}

// FieldNames returns the names of every field of a milestone, in order.
func FieldNames(id ID) []string {
	names := make([]string, 0, len(registry[id]))
	for _, f := range registry[id] {
		names = append(names, f.Name)
	}
	return names
}
