package sample

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/bryanwahyu/health-companion/internal/domain/family"
)

// FamilyRepo serves the fixed sample household. It never changes, so every
// read hands out a copy.
type FamilyRepo struct {
	members   []family.Member
	emergency family.EmergencyProfile
}

func NewFamilyRepo() *FamilyRepo {
	return &FamilyRepo{members: members(), emergency: emergencyProfile()}
}

func (r *FamilyRepo) List(_ context.Context) ([]family.Summary, error) {
	out := make([]family.Summary, len(r.members))
	for i, m := range r.members {
		out[i] = family.Summary{ID: m.ID, Name: m.Name, Relationship: m.Relationship, AvatarURL: m.AvatarURL}
	}
	return out, nil
}

func (r *FamilyRepo) Get(_ context.Context, id string) (*family.Member, error) {
	m, err := r.find(id)
	if err != nil {
		return nil, err
	}
	c := cloneMember(*m)
	return &c, nil
}

func (r *FamilyRepo) EmergencyProfile(_ context.Context) (*family.EmergencyProfile, error) {
	p := r.emergency
	p.Allergies = append([]string{}, r.emergency.Allergies...)
	p.ChronicConditions = append([]string{}, r.emergency.ChronicConditions...)
	return &p, nil
}

func (r *FamilyRepo) SearchDocuments(_ context.Context, memberID, query string) ([]family.MedicalDocument, error) {
	m, err := r.find(memberID)
	if err != nil {
		return nil, err
	}
	query = strings.ToLower(strings.TrimSpace(query))
	out := []family.MedicalDocument{}
	for _, d := range m.Documents {
		if strings.Contains(strings.ToLower(d.Name), query) || strings.Contains(strings.ToLower(string(d.Type)), query) {
			out = append(out, d)
		}
	}
	slices.SortStableFunc(out, func(a, b family.MedicalDocument) int {
		return b.UploadDate.Compare(a.UploadDate)
	})
	return out, nil
}

func (r *FamilyRepo) UpcomingAppointments(_ context.Context, memberID string, now time.Time) ([]family.Appointment, error) {
	m, err := r.find(memberID)
	if err != nil {
		return nil, err
	}
	out := []family.Appointment{}
	for _, a := range m.Appointments {
		if !a.Date.Before(now) {
			out = append(out, a)
		}
	}
	slices.SortStableFunc(out, func(a, b family.Appointment) int {
		return a.Date.Compare(b.Date)
	})
	return out, nil
}

func (r *FamilyRepo) find(id string) (*family.Member, error) {
	for i := range r.members {
		if r.members[i].ID == id {
			return &r.members[i], nil
		}
	}
	return nil, family.ErrMemberNotFound
}

func cloneMember(m family.Member) family.Member {
	out := m
	out.Vitals = make([]family.VitalSign, len(m.Vitals))
	for i, v := range m.Vitals {
		if v.BloodSugar != nil {
			bs := *v.BloodSugar
			v.BloodSugar = &bs
		}
		out.Vitals[i] = v
	}
	out.Medications = append([]family.Medication{}, m.Medications...)
	out.Appointments = append([]family.Appointment{}, m.Appointments...)
	out.WellnessLog = append([]family.WellnessEntry{}, m.WellnessLog...)
	out.Documents = append([]family.MedicalDocument{}, m.Documents...)
	return out
}

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func intPtr(v int) *int { return &v }

func emergencyProfile() family.EmergencyProfile {
	return family.EmergencyProfile{
		BloodGroup:        "O+",
		Allergies:         []string{"Peanuts", "Penicillin"},
		ChronicConditions: []string{"Hypertension", "Type 2 Diabetes"},
		EmergencyContact:  family.EmergencyContact{Name: "Jane Doe", Phone: "+91 98765 43210"},
	}
}

func members() []family.Member {
	return []family.Member{
		{
			ID:           "1",
			Name:         "You",
			Relationship: family.RelationshipSelf,
			AvatarURL:    "https://picsum.photos/id/237/200/200",
			DOB:          "1988-05-20",
			Vitals: []family.VitalSign{
				{Date: at("2024-07-20T08:00:00Z"), BloodPressure: "122/78", HeartRate: 68, Temperature: 36.8, BloodSugar: intPtr(95)},
				{Date: at("2024-07-21T08:00:00Z"), BloodPressure: "120/80", HeartRate: 70, Temperature: 36.9, BloodSugar: intPtr(92)},
			},
			Medications: []family.Medication{
				{ID: "med1", Name: "Vitamin D3", Dosage: "2000 IU", Frequency: "Once a day", Reason: "Supplement"},
				{ID: "med2", Name: "Lisinopril", Dosage: "10mg", Frequency: "Once a day", Reason: "Hypertension"},
			},
			Appointments: []family.Appointment{
				{ID: "apt1", DoctorName: "Dr. Smith", Specialty: "Cardiologist", Date: at("2024-08-15T10:00:00Z"), Reason: "Annual Checkup"},
				{ID: "apt2", DoctorName: "Dr. Jones", Specialty: "Dentist", Date: at("2024-09-01T14:30:00Z"), Reason: "Dental Cleaning"},
			},
			WellnessLog: []family.WellnessEntry{
				{Date: at("2024-07-21T21:00:00Z"), Mood: family.MoodHappy, SleepHours: 7.5, Activity: "30 min walk"},
				{Date: at("2024-07-22T21:00:00Z"), Mood: family.MoodEnergetic, SleepHours: 8, Activity: "1 hour gym"},
			},
			Documents: []family.MedicalDocument{
				{ID: "doc1", Name: "Annual Blood Test", Type: family.DocumentLabReport, UploadDate: at("2024-05-10T09:00:00Z"), FileURL: "#"},
				{ID: "doc2", Name: "Lisinopril Rx", Type: family.DocumentPrescription, UploadDate: at("2024-01-15T11:00:00Z"), FileURL: "#"},
			},
		},
		{
			ID:           "2",
			Name:         "Jane Doe",
			Relationship: family.RelationshipSpouse,
			AvatarURL:    "https://picsum.photos/id/1/200/200",
			DOB:          "1990-11-12",
			Vitals: []family.VitalSign{
				{Date: at("2024-07-21T09:00:00Z"), BloodPressure: "110/70", HeartRate: 75, Temperature: 37.0},
			},
			Medications: []family.Medication{
				{ID: "med3", Name: "Iron Supplement", Dosage: "65mg", Frequency: "Once a day", Reason: "Anemia"},
			},
			Appointments: []family.Appointment{
				{ID: "apt3", DoctorName: "Dr. Wells", Specialty: "Gynecologist", Date: at("2024-10-05T11:00:00Z"), Reason: "Annual Visit"},
			},
			WellnessLog: []family.WellnessEntry{
				{Date: at("2024-07-22T21:00:00Z"), Mood: family.MoodNeutral, SleepHours: 7, Activity: "Yoga session"},
			},
			Documents: []family.MedicalDocument{
				{ID: "doc3", Name: "Thyroid Panel", Type: family.DocumentLabReport, UploadDate: at("2024-06-20T14:00:00Z"), FileURL: "#"},
				{ID: "doc4", Name: "Dermatologist Note", Type: family.DocumentDoctorNote, UploadDate: at("2024-07-02T16:00:00Z"), FileURL: "#"},
			},
		},
		{
			ID:           "3",
			Name:         "Leo Doe",
			Relationship: family.RelationshipChild,
			AvatarURL:    "https://picsum.photos/id/1025/200/200",
			DOB:          "2018-03-01",
			Vitals:       []family.VitalSign{},
			Medications:  []family.Medication{},
			Appointments: []family.Appointment{
				{ID: "apt4", DoctorName: "Dr. Adams", Specialty: "Pediatrician", Date: at("2024-09-10T09:30:00Z"), Reason: "Vaccination"},
			},
			WellnessLog: []family.WellnessEntry{},
			Documents: []family.MedicalDocument{
				{ID: "doc5", Name: "Birth Certificate", Type: family.DocumentTestResult, UploadDate: at("2018-03-01T18:00:00Z"), FileURL: "#"},
			},
		},
	}
}
