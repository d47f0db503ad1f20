package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/WMS-GIETU/WorkshopMS/core/album"
)

type albumRepository struct {
	db *DB
}

func NewAlbumRepository(db *DB) album.Repository {
	return &albumRepository{db: db}
}

func (repo *albumRepository) CreateImage(_ context.Context, img album.Image) (album.Image, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	img.ID = uuid.NewString()
	repo.db.albumImages[img.ID] = &img
	return img, nil
}

func (repo *albumRepository) GetImageByID(_ context.Context, id string) (album.Image, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if img, ok := repo.db.albumImages[id]; ok {
		return *img, nil
	}
	return album.Image{}, album.ErrNotFound
}

func (repo *albumRepository) FilterImagesByClub(_ context.Context, clubCode, workshopID string) ([]album.Image, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var imgs []album.Image
	for _, img := range repo.db.albumImages {
		if img.ClubCode != clubCode {
			continue
		}
		if workshopID != "" && img.WorkshopID != workshopID {
			continue
		}
		imgs = append(imgs, *img)
	}
	sortNewestFirst(imgs)
	return imgs, nil
}

func (repo *albumRepository) QueryAllImages(_ context.Context) ([]album.Image, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	imgs := make([]album.Image, 0, len(repo.db.albumImages))
	for _, img := range repo.db.albumImages {
		imgs = append(imgs, *img)
	}
	sortNewestFirst(imgs)
	return imgs, nil
}

func sortNewestFirst(imgs []album.Image) {
	sort.Slice(imgs, func(i, j int) bool { return imgs[i].CreatedAt.After(imgs[j].CreatedAt) })
}

func (repo *albumRepository) DeleteImage(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.albumImages[id]; !ok {
		return album.ErrNotFound
	}
	delete(repo.db.albumImages, id)
	return nil
}
