// Package album stores a club's photo gallery.
package album

import (
	"context"
	"time"

	"github.com/WMS-GIETU/WorkshopMS/core"
	"github.com/WMS-GIETU/WorkshopMS/core/user"
	"github.com/WMS-GIETU/WorkshopMS/core/workshop"
)

var ErrNotFound = core.NewNotFoundError("Album image not found")

// Image is one photo in a club's album, optionally tied to a workshop.
type Image struct {
	ID          string    `json:"id"`
	ClubCode    string    `json:"clubCode"`
	WorkshopID  string    `json:"workshopId,omitempty"`
	Data        []byte    `json:"-"`
	ContentType string    `json:"contentType"`
	Caption     string    `json:"caption,omitempty"`
	UploadedBy  string    `json:"uploadedBy"`
	CreatedAt   time.Time `json:"createdAt"` // UTC
}

// PublicImage is an album entry enriched with its workshop's details for
// the public gallery. WorkshopDetails is nil for untied photos.
type PublicImage struct {
	ID              string           `json:"id"`
	Caption         string           `json:"caption,omitempty"`
	ContentType     string           `json:"contentType"`
	CreatedAt       time.Time        `json:"createdAt"`
	WorkshopDetails *WorkshopDetails `json:"workshopDetails"`
}

type WorkshopDetails struct {
	Name     string `json:"name"`
	ClubCode string `json:"clubCode"`
	Date     string `json:"date"`
}

type (
	// Repository persists album images. FilterImagesByClub narrows to one
	// workshop when workshopID is set; listings are newest first.
	Repository interface {
		CreateImage(ctx context.Context, img Image) (Image, error)
		GetImageByID(ctx context.Context, id string) (Image, error)
		FilterImagesByClub(ctx context.Context, clubCode, workshopID string) ([]Image, error)
		QueryAllImages(ctx context.Context) ([]Image, error)
		DeleteImage(ctx context.Context, id string) error
	}

	// WorkshopDirectory resolves workshop references for uploads and the
	// public listing; workshop.Repository satisfies it.
	WorkshopDirectory interface {
		GetWorkshopByID(ctx context.Context, id string) (workshop.Workshop, error)
	}

	Service struct {
		repo      Repository
		workshops WorkshopDirectory
		log       core.Logger
	}
)

func NewService(repo Repository, workshops WorkshopDirectory, log core.Logger) *Service {
	return &Service{repo: repo, workshops: workshops, log: log}
}

// Upload adds a photo to the actor's club album. The upload is validated
// against the same size and type limits as workshop images; a workshop
// reference, when given, must resolve.
func (svc *Service) Upload(ctx context.Context, actor user.User, up workshop.ImageUpload, caption, workshopID string) (Image, error) {
	if err := up.Validate(); err != nil {
		return Image{}, err
	}
	if workshopID != "" {
		if _, err := svc.workshops.GetWorkshopByID(ctx, workshopID); err != nil {
			return Image{}, err
		}
	}
	return svc.repo.CreateImage(ctx, Image{
		ClubCode:    actor.ClubCode,
		WorkshopID:  workshopID,
		Data:        up.Data,
		ContentType: up.ContentType,
		Caption:     core.CleanString(caption),
		UploadedBy:  actor.ID,
		CreatedAt:   time.Now().UTC(),
	})
}

func (svc *Service) Get(ctx context.Context, id string) (Image, error) {
	return svc.repo.GetImageByID(ctx, id)
}

// ListByClub returns a club's album, newest first, optionally narrowed to
// one workshop's photos.
func (svc *Service) ListByClub(ctx context.Context, clubCode, workshopID string) ([]Image, error) {
	return svc.repo.FilterImagesByClub(ctx, core.CleanString(clubCode, true /* lower */), workshopID)
}

// ListPublic returns every club's album joined with workshop details, for
// the public gallery.
func (svc *Service) ListPublic(ctx context.Context) ([]PublicImage, error) {
	imgs, err := svc.repo.QueryAllImages(ctx)
	if err != nil {
		return nil, err
	}
	pub := make([]PublicImage, len(imgs))
	for i, img := range imgs {
		pub[i] = PublicImage{
			ID:          img.ID,
			Caption:     img.Caption,
			ContentType: img.ContentType,
			CreatedAt:   img.CreatedAt,
		}
		if img.WorkshopID == "" {
			continue
		}
		ws, err := svc.workshops.GetWorkshopByID(ctx, img.WorkshopID)
		if err != nil {
			continue // deleted workshop, photo stays untied
		}
		pub[i].WorkshopDetails = &WorkshopDetails{Name: ws.Name, ClubCode: ws.ClubCode, Date: ws.Date}
	}
	return pub, nil
}

// Delete removes a photo. The actor must belong to the photo's club.
func (svc *Service) Delete(ctx context.Context, actor user.User, id string) error {
	img, err := svc.repo.GetImageByID(ctx, id)
	if err != nil {
		return err
	}
	if img.ClubCode != actor.ClubCode {
		return core.NewPermissionError("You can only delete images from your own club's album")
	}
	return svc.repo.DeleteImage(ctx, id)
}
