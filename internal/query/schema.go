package query

// Field names a filterable or sortable attribute of a listed record.
type Field string

const (
	FieldFirstName   Field = "firstName"
	FieldLastName    Field = "lastName"
	FieldCompanyName Field = "companyName"
	FieldDateJoined  Field = "dateJoined"
	FieldUpdatedAt   Field = "updatedAt"
	FieldDateCreated Field = "dateCreated"
	FieldLastUpdated Field = "lastUpdated"
)

// Schema describes what a listing may filter and sort on.
type Schema struct {
	Name         string
	Filterable   []Field
	Alphabetical Field
	CreatedAt    Field
	UpdatedAt    Field
}

// UserSchema lists identities.
var UserSchema = Schema{
	Name:         "users",
	Filterable:   []Field{FieldFirstName, FieldLastName, FieldCompanyName},
	Alphabetical: FieldLastName,
	CreatedAt:    FieldDateJoined,
	UpdatedAt:    FieldUpdatedAt,
}

// CompanySchema lists tenants.
var CompanySchema = Schema{
	Name:         "companies",
	Filterable:   []Field{FieldCompanyName},
	Alphabetical: FieldCompanyName,
	CreatedAt:    FieldDateCreated,
	UpdatedAt:    FieldLastUpdated,
}

func (s Schema) filterable(f Field) bool {
	for _, candidate := range s.Filterable {
		if candidate == f {
			return true
		}
	}
	return false
}
