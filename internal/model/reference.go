package model

import "time"

// ReferenceKind describes one of the simple named lookup tables (directors,
// actors, genres).  All three share the same shape and rules, so a single
// repository and handler serve them, parameterised by the kind.
type ReferenceKind struct {
	Table     string // SQL table name
	NameField string // JSON field carrying the name in requests and responses
	Label     string // human label used in messages
}

var (
	DirectorKind = ReferenceKind{Table: "directors", NameField: "director_name", Label: "Director"}
	ActorKind    = ReferenceKind{Table: "actors", NameField: "actor_name", Label: "Actor"}
	GenreKind    = ReferenceKind{Table: "genres", NameField: "genre_name", Label: "Genre"}
)

// ReferenceNameMax is the column width shared by the three reference tables.
const ReferenceNameMax = 50

// Reference is a row of a reference table.
type Reference struct {
	ID        uint64
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
