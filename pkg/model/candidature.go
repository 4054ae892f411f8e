package model

// StudyLevel identifies the programme a candidate applies to.
type StudyLevel string

const (
	LevelBac      StudyLevel = "bac"
	LevelLicence1 StudyLevel = "licence1"
	LevelLicence2 StudyLevel = "licence2"
	LevelLicence3 StudyLevel = "licence3"
	LevelMaster1  StudyLevel = "master1"
	LevelMaster2  StudyLevel = "master2"
)

// StudyLevels lists the accepted levels in ascending order.
var StudyLevels = []StudyLevel{LevelBac, LevelLicence1, LevelLicence2, LevelLicence3, LevelMaster1, LevelMaster2}

// Grade is one line of a candidate's transcript.
type Grade struct {
	ID      *int    `json:"id,omitempty" yaml:"-"`
	Subject string  `json:"matiere" yaml:"subject"`
	Score   float64 `json:"note" yaml:"score"`
	Weight  float64 `json:"coefficient" yaml:"weight"`
	Period  string  `json:"periode" yaml:"period"`
	Year    string  `json:"annee" yaml:"year"`
}

// Counts reports whether the grade contributes to the weighted average.
func (g Grade) Counts() bool {
	return g.Score > 0 && g.Weight > 0
}

// Filled reports whether the grade carries enough data to be submitted.
func (g Grade) Filled() bool {
	return g.Subject != "" && g.Score > 0
}

// PersonalInfo is the identity block of a candidature.
type PersonalInfo struct {
	LastName    string `json:"nom"`
	FirstName   string `json:"prenom"`
	Email       string `json:"email"`
	Phone       string `json:"telephone,omitempty"`
	StudyLevel  string `json:"niveau_etude"`
	BirthDate   string `json:"date_naissance,omitempty"`
	Nationality string `json:"nationalite,omitempty"`
	Address     string `json:"adresse,omitempty"`
}

// UploadedDocument describes a file stored with a candidature.
type UploadedDocument struct {
	Year             string `json:"year"`
	Filename         string `json:"filename"`
	OriginalFilename string `json:"original_filename"`
	Size             int64  `json:"size"`
	FileType         string `json:"file_type"`
	UploadDate       string `json:"upload_date"`
}

// AdminComment is a reviewer note attached to a candidature.
type AdminComment struct {
	Date    string `json:"date"`
	Author  string `json:"auteur"`
	Comment string `json:"commentaire"`
}

// Candidature is a prospective student's application record.
type Candidature struct {
	ID                   string             `json:"id"`
	PersonalInfo         PersonalInfo       `json:"personal_info"`
	Grades               []Grade            `json:"grades"`
	Documents            []UploadedDocument `json:"documents"`
	SubmittedAt          string             `json:"date_soumission"`
	Status               ValidationStatus   `json:"statut"`
	FolderPath           string             `json:"dossier_path"`
	Average              *float64           `json:"moyenne_generale,omitempty"`
	CompletionPercentage float64            `json:"completion_percentage"`
	AdminComments        []AdminComment     `json:"commentaires_admin,omitempty"`
	ValidatedAt          string             `json:"date_validation,omitempty"`
	ValidatedBy          string             `json:"valide_par,omitempty"`
}

// CandidatureValidation is the body of POST /candidatures/{id}/validate.
type CandidatureValidation struct {
	Decision        ValidationStatus `json:"decision"`
	Comment         string           `json:"commentaire,omitempty"`
	NotifyCandidate bool             `json:"notify_candidate"`
}

// CandidatureCreate carries the fields of the multipart create call.
type CandidatureCreate struct {
	LastName   string
	FirstName  string
	Email      string
	StudyLevel string
	Phone      string
	Grades     []Grade
	Files      []string
}
