package pgdb

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/WMS-GIETU/WorkshopMS/core/album"
)

type dbAlbumImage struct {
	ID          string    `db:"id"`
	ClubCode    string    `db:"club_code"`
	WorkshopID  string    `db:"workshop_id"`
	Data        []byte    `db:"data"`
	ContentType string    `db:"content_type"`
	Caption     string    `db:"caption"`
	UploadedBy  string    `db:"uploaded_by"`
	CreatedAt   time.Time `db:"created_at"`
}

type albumRepository struct {
	db *sqlx.DB
}

func NewAlbumRepository(db *sqlx.DB) album.Repository {
	return &albumRepository{db: db}
}

const albumImageColumns = `id, club_code, workshop_id, data, content_type, caption, uploaded_by, created_at`

func (repo *albumRepository) CreateImage(ctx context.Context, img album.Image) (album.Image, error) {
	img.ID = uuid.NewString()
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO album_image (`+albumImageColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		img.ID, img.ClubCode, img.WorkshopID, img.Data, img.ContentType, img.Caption, img.UploadedBy, img.CreatedAt,
	)
	if err != nil {
		return album.Image{}, err
	}
	return img, nil
}

func (repo *albumRepository) GetImageByID(ctx context.Context, id string) (album.Image, error) {
	var row dbAlbumImage
	err := repo.db.GetContext(ctx, &row, `
		SELECT `+albumImageColumns+` FROM album_image WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return album.Image{}, album.ErrNotFound
		}
		return album.Image{}, err
	}
	return album.Image(row), nil
}

func (repo *albumRepository) FilterImagesByClub(ctx context.Context, clubCode, workshopID string) ([]album.Image, error) {
	var rows []dbAlbumImage
	err := repo.db.SelectContext(ctx, &rows, `
		SELECT `+albumImageColumns+` FROM album_image
		WHERE club_code = $1 AND ($2 = '' OR workshop_id = $2)
		ORDER BY created_at DESC`, clubCode, workshopID)
	if err != nil {
		return nil, err
	}
	return toAlbumImages(rows), nil
}

func (repo *albumRepository) QueryAllImages(ctx context.Context) ([]album.Image, error) {
	var rows []dbAlbumImage
	err := repo.db.SelectContext(ctx, &rows, `
		SELECT `+albumImageColumns+` FROM album_image ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	return toAlbumImages(rows), nil
}

func (repo *albumRepository) DeleteImage(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM album_image WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return album.ErrNotFound
	}
	return nil
}

func toAlbumImages(rows []dbAlbumImage) []album.Image {
	imgs := make([]album.Image, len(rows))
	for i, row := range rows {
		imgs[i] = album.Image(row)
	}
	return imgs
}
