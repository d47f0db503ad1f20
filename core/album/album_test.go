package album_test

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/WMS-GIETU/WorkshopMS/core"
	. "github.com/WMS-GIETU/WorkshopMS/core/album"
	"github.com/WMS-GIETU/WorkshopMS/core/user"
	"github.com/WMS-GIETU/WorkshopMS/core/workshop"
	logsvc "github.com/WMS-GIETU/WorkshopMS/services/logger"
	inmemdb "github.com/WMS-GIETU/WorkshopMS/storage/database/inmem"
)

var (
	sarsAdmin = user.User{
		ID:       "usr-admin",
		Username: "sarsadmin",
		Roles:    []user.Role{user.RoleAdmin},
		ClubCode: "sars",
	}
	otherAdmin = user.User{
		ID:       "usr-other",
		Username: "otheradmin",
		Roles:    []user.Role{user.RoleAdmin},
		ClubCode: "robotics",
	}
)

func newTestService(t *testing.T) (*Service, workshop.Repository) {
	t.Helper()
	db := inmemdb.NewDB()
	wsRepo := inmemdb.NewWorkshopRepository(db)
	logger := logsvc.NewStdLogger(log.New(os.Stdout, "TEST : ", log.LstdFlags))
	return NewService(inmemdb.NewAlbumRepository(db), wsRepo, logger), wsRepo
}

func createWorkshop(t *testing.T, repo workshop.Repository, name, clubCode string) workshop.Workshop {
	t.Helper()
	now := time.Now().UTC()
	ws, err := repo.CreateWorkshop(context.Background(), workshop.Workshop{
		Name:      name,
		Date:      "2026-09-15",
		Time:      "14:00",
		Location:  "Lab B",
		Topic:     "Robotics",
		ClubCode:  clubCode,
		CreatedBy: sarsAdmin.ID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateWorkshop() failed: %v", err)
	}
	return ws
}

func upload(name string) workshop.ImageUpload {
	return workshop.ImageUpload{Data: []byte("fake-jpeg"), ContentType: "image/jpeg", Filename: name}
}

func TestService_Upload(t *testing.T) {
	ctx := context.Background()
	svc, wsRepo := newTestService(t)
	ws := createWorkshop(t, wsRepo, "Robotics 101", "sars")

	img, err := svc.Upload(ctx, sarsAdmin, upload("event.jpg"), "Inauguration day", ws.ID)
	if err != nil {
		t.Fatalf("Upload() failed: %v", err)
	}
	if img.ID == "" || img.ClubCode != "sars" || img.Caption != "Inauguration day" || img.WorkshopID != ws.ID {
		t.Errorf("Upload() = %+v", img)
	}

	// type limit applies
	bad := workshop.ImageUpload{Data: []byte("GIF89a"), ContentType: "image/gif", Filename: "anim.gif"}
	_, err = svc.Upload(ctx, sarsAdmin, bad, "", "")
	if _, ok := err.(*core.ValidationError); !ok {
		t.Errorf("Upload() err = %v; want a validation error", err)
	}

	// a workshop reference must resolve
	_, err = svc.Upload(ctx, sarsAdmin, upload("event.jpg"), "", "no-such-workshop")
	if err != workshop.ErrNotFound {
		t.Errorf("Upload() err = %v; want %v", err, workshop.ErrNotFound)
	}
}

func TestService_ListByClub(t *testing.T) {
	ctx := context.Background()
	svc, wsRepo := newTestService(t)
	ws := createWorkshop(t, wsRepo, "Robotics 101", "sars")

	first, err := svc.Upload(ctx, sarsAdmin, upload("one.jpg"), "", ws.ID)
	if err != nil {
		t.Fatalf("Upload() failed: %v", err)
	}
	second, err := svc.Upload(ctx, sarsAdmin, upload("two.jpg"), "", "")
	if err != nil {
		t.Fatalf("Upload() failed: %v", err)
	}
	if _, err := svc.Upload(ctx, otherAdmin, upload("other.jpg"), "", ""); err != nil {
		t.Fatalf("Upload() failed: %v", err)
	}

	imgs, err := svc.ListByClub(ctx, "sars", "")
	if err != nil {
		t.Fatalf("ListByClub() failed: %v", err)
	}
	if len(imgs) != 2 {
		t.Fatalf("ListByClub() returned %d images; want 2", len(imgs))
	}
	// newest first
	if imgs[0].ID != second.ID || imgs[1].ID != first.ID {
		t.Errorf("ListByClub() order = [%s %s]; want newest first", imgs[0].ID, imgs[1].ID)
	}

	// narrowed to one workshop's photos
	imgs, err = svc.ListByClub(ctx, "sars", ws.ID)
	if err != nil {
		t.Fatalf("ListByClub() failed: %v", err)
	}
	if len(imgs) != 1 || imgs[0].ID != first.ID {
		t.Errorf("ListByClub(workshop) = %+v; want the tied photo only", imgs)
	}
}

func TestService_ListPublic(t *testing.T) {
	ctx := context.Background()
	svc, wsRepo := newTestService(t)
	ws := createWorkshop(t, wsRepo, "Robotics 101", "sars")

	tied, err := svc.Upload(ctx, sarsAdmin, upload("one.jpg"), "Demo day", ws.ID)
	if err != nil {
		t.Fatalf("Upload() failed: %v", err)
	}
	if _, err := svc.Upload(ctx, otherAdmin, upload("other.jpg"), "", ""); err != nil {
		t.Fatalf("Upload() failed: %v", err)
	}

	pub, err := svc.ListPublic(ctx)
	if err != nil {
		t.Fatalf("ListPublic() failed: %v", err)
	}
	if len(pub) != 2 {
		t.Fatalf("ListPublic() returned %d images; want both clubs' photos", len(pub))
	}
	for _, img := range pub {
		if img.ID == tied.ID {
			if img.WorkshopDetails == nil || img.WorkshopDetails.Name != "Robotics 101" || img.WorkshopDetails.ClubCode != "sars" {
				t.Errorf("ListPublic() details = %+v; want the tied workshop", img.WorkshopDetails)
			}
		} else if img.WorkshopDetails != nil {
			t.Errorf("ListPublic() details = %+v; want nil for untied photos", img.WorkshopDetails)
		}
	}
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	img, err := svc.Upload(ctx, sarsAdmin, upload("event.jpg"), "", "")
	if err != nil {
		t.Fatalf("Upload() failed: %v", err)
	}

	if err := svc.Delete(ctx, otherAdmin, img.ID); err == nil {
		t.Error("Delete() by another club's admin should fail")
	} else if _, ok := err.(*core.PermissionError); !ok {
		t.Errorf("Delete() err = %v; want a permission error", err)
	}

	if err := svc.Delete(ctx, sarsAdmin, img.ID); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, err := svc.Get(ctx, img.ID); err != ErrNotFound {
		t.Errorf("Get() err = %v; want %v", err, ErrNotFound)
	}
}
