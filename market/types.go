package market

// Category identifies the market section a publication belongs to.
type Category int

const (
	CategoryApplications Category = 1
	CategoryLibraries    Category = 2
	CategoryScripts      Category = 3
	CategoryWallpapers   Category = 4
)

// String returns the market's display name for the category.
func (c Category) String() string {
	switch c {
	case CategoryApplications:
		return "Applications"
	case CategoryLibraries:
		return "Libraries"
	case CategoryScripts:
		return "Scripts"
	case CategoryWallpapers:
		return "Wallpapers"
	default:
		return "Unknown"
	}
}

// Language selects which localization the market uses for
// translation-dependent strings in publication details.
type Language int

const (
	LanguageEnglish Language = 18
	LanguageRussian Language = 71
)

// License identifies one of the licenses the market accepts for uploads.
type License int

const (
	LicenseMIT License = iota + 1
	LicenseGPLv3
	LicenseAGPLv3
	LicenseLGPLv3
	LicenseApache2
	LicenseMPL2
	LicenseUnlicense
)

// String returns the market's display name for the license.
func (l License) String() string {
	switch l {
	case LicenseMIT:
		return "MIT"
	case LicenseGPLv3:
		return "GNU GPLv3"
	case LicenseAGPLv3:
		return "GNU AGPLv3"
	case LicenseLGPLv3:
		return "GNU LGPLv3"
	case LicenseApache2:
		return "Apache Licence 2.0"
	case LicenseMPL2:
		return "Mozilla Public License 2.0"
	case LicenseUnlicense:
		return "The Unlicense"
	default:
		return "Unknown"
	}
}

// OrderBy names a server-side sort key for search results.
type OrderBy string

const (
	OrderByPopularity OrderBy = "popularity"
	OrderByRating     OrderBy = "rating"
	OrderByName       OrderBy = "name"
	OrderByDate       OrderBy = "date"
)

// FileType classifies a dependency entry in a publication.
type FileType int

const (
	FileTypeMain         FileType = 1
	FileTypeResource     FileType = 2
	FileTypeIcon         FileType = 3
	FileTypeLocalization FileType = 4
	FileTypePreview      FileType = 5
)

// AppSummary is the partial publication record returned by search and
// listing calls.
type AppSummary struct {
	ID            int64    `json:"file_id"`
	Name          string   `json:"publication_name"`
	Author        string   `json:"user_name"`
	Version       float64  `json:"version"`
	Category      Category `json:"category_id"`
	ReviewsCount  int      `json:"reviews_count"`
	Downloads     int64    `json:"downloads"`
	IconURL       string   `json:"icon_url,omitempty"`
	AverageRating *float64 `json:"average_rating,omitempty"`
	Popularity    *float64 `json:"popularity,omitempty"`
}

// Rating returns the average rating, or 0 when the market has none.
func (a AppSummary) Rating() float64 {
	if a.AverageRating == nil {
		return 0
	}
	return *a.AverageRating
}

func (a AppSummary) validate() error {
	if a.ID == 0 {
		return &SchemaError{Field: "file_id", Reason: "missing or zero"}
	}
	if a.Name == "" {
		return &SchemaError{Field: "publication_name", Reason: "missing or empty"}
	}
	if a.AverageRating != nil && (*a.AverageRating < 0 || *a.AverageRating > 5) {
		return &SchemaError{Field: "average_rating", Reason: "outside [0,5]"}
	}
	return nil
}

// Dependency is one file a publication needs installed alongside its main
// file: a resource, an icon, a localization, or another publication.
type Dependency struct {
	SourceURL string   `json:"source_url"`
	Path      string   `json:"path"`
	Version   float64  `json:"version"`
	Type      FileType `json:"type_id"`
	Name      string   `json:"publication_name,omitempty"`
	Category  Category `json:"category_id,omitempty"`
}

// IsPublication reports whether the dependency is itself a published app
// rather than a plain resource file.
func (d Dependency) IsPublication() bool {
	return d.Name != ""
}

// AppDetail is the full publication record returned by the detail endpoint.
type AppDetail struct {
	ID                    int64                `json:"file_id"`
	Name                  string               `json:"publication_name"`
	Author                string               `json:"user_name"`
	Version               float64              `json:"version"`
	Category              Category             `json:"category_id"`
	SourceURL             string               `json:"source_url"`
	Path                  string               `json:"path"`
	License               License              `json:"license_id"`
	ReleasedAt            int64                `json:"timestamp"`
	Description           string               `json:"initial_description"`
	TranslatedDescription string               `json:"translated_description"`
	DependencyData        map[int64]Dependency `json:"dependencies_data,omitempty"`
	Dependencies          []int64              `json:"dependencies,omitempty"`
	AllDependencies       []int64              `json:"all_dependencies,omitempty"`
	IconURL               string               `json:"icon_url,omitempty"`
	AverageRating         float64              `json:"average_rating,omitempty"`
	WhatsNew              string               `json:"whats_new,omitempty"`
	WhatsNewVersion       float64              `json:"whats_new_version,omitempty"`
	Downloads             int64                `json:"downloads,omitempty"`
}

func (a AppDetail) validate() error {
	if a.ID == 0 {
		return &SchemaError{Field: "file_id", Reason: "missing or zero"}
	}
	if a.Name == "" {
		return &SchemaError{Field: "publication_name", Reason: "missing or empty"}
	}
	if a.SourceURL == "" {
		return &SchemaError{Field: "source_url", Reason: "missing or empty"}
	}
	if a.AverageRating < 0 || a.AverageRating > 5 {
		return &SchemaError{Field: "average_rating", Reason: "outside [0,5]"}
	}
	return nil
}

// AppVersion describes one downloadable version of a publication. The
// market reports only what it knows; Size and Checksum stay zero-valued
// until a download response declares them.
type AppVersion struct {
	Version    float64 `json:"version"`
	ReleasedAt int64   `json:"timestamp"`
	SourceURL  string  `json:"source_url"`
	Path       string  `json:"path"`
	Size       int64   `json:"size,omitempty"`
	Checksum   string  `json:"checksum,omitempty"`
}

// ReviewVotes holds helpfulness vote counts for a review.
type ReviewVotes struct {
	Total    int `json:"total"`
	Positive int `json:"positive"`
}

// Negative returns the count of not-helpful votes.
func (v ReviewVotes) Negative() int {
	return v.Total - v.Positive
}

// Review is one user review of a publication. Rating is within 1..5.
type Review struct {
	ID        int64       `json:"id"`
	Author    string      `json:"user_name"`
	Rating    int         `json:"rating"`
	Comment   string      `json:"comment"`
	Timestamp int64       `json:"timestamp"`
	Votes     ReviewVotes `json:"votes"`
}

func (r Review) validate() error {
	if r.Author == "" {
		return &SchemaError{Field: "user_name", Reason: "missing or empty"}
	}
	if r.Rating < 1 || r.Rating > 5 {
		return &SchemaError{Field: "rating", Reason: "outside [1,5]"}
	}
	return nil
}

// AuthToken is the credential record returned by a successful login.
// The token string stamps subsequent authenticated calls.
type AuthToken struct {
	Token    string `json:"token"`
	UserID   int64  `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Verified bool   `json:"is_verified"`
	IssuedAt int64  `json:"timestamp"`
}

func (t AuthToken) validate() error {
	if t.Token == "" {
		return &SchemaError{Field: "token", Reason: "missing or empty"}
	}
	return nil
}

// Statistics is the marketplace-wide totals record.
type Statistics struct {
	UsersCount         int64  `json:"users_count"`
	PublicationsCount  int64  `json:"publications_count"`
	ReviewsCount       int64  `json:"reviews_count"`
	MessagesCount      int64  `json:"messages_count"`
	LastRegisteredUser string `json:"last_registered_user"`
	MostPopularUser    string `json:"most_popular_user"`
}

// Notification is one entry from the account's dialog listing.
type Notification struct {
	DialogUserName      string `json:"dialog_user_name"`
	Timestamp           int64  `json:"timestamp"`
	Text                string `json:"text"`
	LastMessageIsRead   bool   `json:"last_message_is_read"`
	LastMessageUserName string `json:"last_message_user_name"`
	LastMessageUserID   int64  `json:"last_message_user_id"`
}

// Message is one direct message between market users.
type Message struct {
	Text      string `json:"text"`
	Author    string `json:"user_name"`
	Timestamp int64  `json:"timestamp"`
}
