package testutils

import (
	"context"
	"database/sql"
	"time"

	"github.com/icrowley/fake"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "modernc.org/sqlite"

	"github.com/krew-solutions/ascetic-query-go/asceticquery/querybuilder/domain/metadata"
)

// DateTimeLayout is how fixture dates are stored in text columns.
const DateTimeLayout = "2006-01-02 15:04:05"

type Artist struct {
	ID        int64
	Name      string
	CreatedAt *time.Time
}

type Album struct {
	ID        int64
	Name      string
	CreatedAt *time.Time
	ArtistID  *int64
}

// MusicSchema describes the artist and album tables used across the
// relational tests.
func MusicSchema() (artist, album *metadata.Entity) {
	artist = metadata.NewEntity("artist")
	album = metadata.NewEntity("album")
	artist.
		AddField("id", metadata.TypeInteger).
		AddField("name", metadata.TypeString).
		AddColumn("createdAt", "created_at", metadata.TypeDateTime).
		AddCollection("albums", album, "artist_id", "id")
	album.
		AddField("id", metadata.TypeInteger).
		AddField("name", metadata.TypeString).
		AddColumn("createdAt", "created_at", metadata.TypeDateTime).
		AddAssociation("artist", artist, "artist_id", "id")
	return artist, album
}

// MetaSchema describes the documents returned by MetaDocuments.
func MetaSchema() *metadata.Entity {
	return metadata.NewEntity("meta").
		WithIdentifier("_id").
		AddField("_id", metadata.TypeInteger).
		AddField("name", metadata.TypeString).
		AddField("description", metadata.TypeString).
		AddField("createdAt", metadata.TypeDateTime)
}

func at(value string) *time.Time {
	t, err := time.Parse(DateTimeLayout, value)
	if err != nil {
		panic(err)
	}
	return &t
}

func ref(id int64) *int64 {
	return &id
}

// MusicArtists has one artist without a creation date.
func MusicArtists() []Artist {
	return []Artist{
		{ID: 1, Name: "ArtistOne", CreatedAt: at("2011-12-18 13:17:17")},
		{ID: 2, Name: "ArtistTwo", CreatedAt: at("2014-12-18 13:17:17")},
		{ID: 3, Name: "ArtistThree", CreatedAt: at("2012-12-18 13:17:17")},
		{ID: 4, Name: "ArtistFour", CreatedAt: at("2013-12-18 13:17:17")},
		{ID: 5, Name: "ArtistFive"},
	}
}

// MusicAlbums belong to ArtistOne (three), ArtistTwo (two) and nobody (one).
func MusicAlbums() []Album {
	created := at("2013-12-18 13:17:17")
	return []Album{
		{ID: 1, Name: "AlbumOne", CreatedAt: created, ArtistID: ref(1)},
		{ID: 2, Name: "AlbumTwo", CreatedAt: created, ArtistID: ref(1)},
		{ID: 3, Name: "AlbumThree", CreatedAt: created, ArtistID: ref(1)},
		{ID: 4, Name: "AlbumFour", CreatedAt: created, ArtistID: ref(2)},
		{ID: 5, Name: "AlbumFive", CreatedAt: created, ArtistID: ref(2)},
		{ID: 6, Name: "AlbumSix", CreatedAt: created},
	}
}

// BandArtists are named so that ordering by name is easy to tell apart.
func BandArtists() []Artist {
	return []Artist{
		{ID: 1, Name: "ABBA", CreatedAt: at("2011-12-18 13:17:17")},
		{ID: 2, Name: "Band, The", CreatedAt: at("2014-12-18 13:17:17")},
		{ID: 3, Name: "CubanStack", CreatedAt: at("2012-12-18 13:17:17")},
		{ID: 4, Name: "Drunk in July", CreatedAt: at("2013-12-18 13:17:17")},
		{ID: 5, Name: "Ekoostic Hookah"},
	}
}

// RandomArtists generates n artists; roughly one in five has no creation date.
func RandomArtists(n int) []Artist {
	artists := make([]Artist, n)
	for i := range artists {
		artists[i] = Artist{
			ID:   int64(i + 1),
			Name: fake.FullName(),
		}
		if i%5 != 4 {
			created := time.Date(fake.Year(2000, 2020), time.Month(fake.MonthNum()), fake.Day(), 12, 0, 0, 0, time.UTC)
			artists[i].CreatedAt = &created
		}
	}
	return artists
}

// MetaDocuments mirrors a document collection where later documents lack
// some of the keys.
func MetaDocuments() []map[string]any {
	return []map[string]any{
		{"_id": 1, "name": "MetaOne", "description": "Foo", "createdAt": *at("2011-12-18 13:17:17")},
		{"_id": 2, "name": "MetaTwo", "description": "Bar", "createdAt": *at("2014-12-18 13:17:17")},
		{"_id": 3, "name": "MetaThree", "description": "Baz", "createdAt": *at("2012-12-18 13:17:17")},
		{"_id": 4, "name": "MetaFour", "createdAt": *at("2013-12-18 13:17:17")},
		{"_id": 5, "name": "MetaFive"},
	}
}

const musicDDL = `
CREATE TABLE artist (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	created_at TEXT
);
CREATE TABLE album (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	created_at TEXT,
	artist_id INTEGER REFERENCES artist (id)
);`

// NewSQLiteMusicDB opens a private in-memory database holding the given rows.
// Dates are stored as text in DateTimeLayout.
func NewSQLiteMusicDB(artists []Artist, albums []Album) (*sql.DB, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, err
	}
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(musicDDL); err != nil {
		db.Close()
		return nil, err
	}
	for _, a := range artists {
		_, err := db.Exec("INSERT INTO artist (id, name, created_at) VALUES (?, ?, ?)", a.ID, a.Name, textDate(a.CreatedAt))
		if err != nil {
			db.Close()
			return nil, err
		}
	}
	for _, a := range albums {
		_, err := db.Exec("INSERT INTO album (id, name, created_at, artist_id) VALUES (?, ?, ?, ?)", a.ID, a.Name, textDate(a.CreatedAt), a.ArtistID)
		if err != nil {
			db.Close()
			return nil, err
		}
	}
	return db, nil
}

func textDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(DateTimeLayout)
}

// SeedPgMusic creates temporary artist and album tables on conn. They shadow
// any permanent tables of the same name and vanish with the session.
func SeedPgMusic(ctx context.Context, conn *pgxpool.Conn, artists []Artist, albums []Album) error {
	ddl := `
CREATE TEMP TABLE artist (
	id BIGINT PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	created_at TIMESTAMP
);
CREATE TEMP TABLE album (
	id BIGINT PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	created_at TIMESTAMP,
	artist_id BIGINT REFERENCES artist (id)
);`
	if _, err := conn.Exec(ctx, ddl); err != nil {
		return err
	}
	for _, a := range artists {
		_, err := conn.Exec(ctx, "INSERT INTO artist (id, name, created_at) VALUES ($1, $2, $3)", a.ID, a.Name, a.CreatedAt)
		if err != nil {
			return err
		}
	}
	for _, a := range albums {
		_, err := conn.Exec(ctx, "INSERT INTO album (id, name, created_at, artist_id) VALUES ($1, $2, $3, $4)", a.ID, a.Name, a.CreatedAt, a.ArtistID)
		if err != nil {
			return err
		}
	}
	return nil
}
