package family

import "time"

// Relationship of a family member to the account holder.
type Relationship string

const (
	RelationshipSelf   Relationship = "Self"
	RelationshipSpouse Relationship = "Spouse"
	RelationshipChild  Relationship = "Child"
	RelationshipParent Relationship = "Parent"
	RelationshipOther  Relationship = "Other"
)

// VitalSign is one recorded set of vitals.
type VitalSign struct {
	Date          time.Time `json:"date"`
	BloodPressure string    `json:"bloodPressure"`

	// HeartRate in bpm, Temperature in Celsius, BloodSugar in mg/dL.
	HeartRate   int     `json:"heartRate"`
	Temperature float64 `json:"temperature"`
	BloodSugar  *int    `json:"bloodSugar,omitempty"`
}

type Medication struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Dosage    string `json:"dosage"`
	Frequency string `json:"frequency"`
	Reason    string `json:"reason"`
}

type Appointment struct {
	ID         string    `json:"id"`
	DoctorName string    `json:"doctorName"`
	Specialty  string    `json:"specialty"`
	Date       time.Time `json:"date"`
	Reason     string    `json:"reason"`
	Notes      string    `json:"notes,omitempty"`
}

// Mood recorded in a wellness entry.
type Mood string

const (
	MoodHappy     Mood = "Happy"
	MoodNeutral   Mood = "Neutral"
	MoodSad       Mood = "Sad"
	MoodAnxious   Mood = "Anxious"
	MoodEnergetic Mood = "Energetic"
)

type WellnessEntry struct {
	Date       time.Time `json:"date"`
	Mood       Mood      `json:"mood"`
	SleepHours float64   `json:"sleepHours"`
	Activity   string    `json:"activity"`
}

// DocumentType of a stored medical document.
type DocumentType string

const (
	DocumentLabReport    DocumentType = "Lab Report"
	DocumentPrescription DocumentType = "Prescription"
	DocumentTestResult   DocumentType = "Test Result"
	DocumentDoctorNote   DocumentType = "Doctor Note"
	DocumentInvoice      DocumentType = "Invoice"
)

type MedicalDocument struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Type       DocumentType `json:"type"`
	UploadDate time.Time    `json:"uploadDate"`
	FileURL    string       `json:"fileUrl"`
}

// Member is one profile in the family dashboard.
type Member struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Relationship Relationship      `json:"relationship"`
	AvatarURL    string            `json:"avatarUrl"`
	DOB          string            `json:"dob"` // YYYY-MM-DD
	Vitals       []VitalSign       `json:"vitals"`
	Medications  []Medication      `json:"medications"`
	Appointments []Appointment     `json:"appointments"`
	WellnessLog  []WellnessEntry   `json:"wellnessLog"`
	Documents    []MedicalDocument `json:"documents"`
}

// Summary is the profile-selector view of a member.
type Summary struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Relationship Relationship `json:"relationship"`
	AvatarURL    string       `json:"avatarUrl"`
}

// EmergencyContact is who to notify on SOS.
type EmergencyContact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// EmergencyProfile is the data shown on the emergency card.
type EmergencyProfile struct {
	BloodGroup        string           `json:"bloodGroup"`
	Allergies         []string         `json:"allergies"`
	ChronicConditions []string         `json:"chronicConditions"`
	EmergencyContact  EmergencyContact `json:"emergencyContact"`
}
