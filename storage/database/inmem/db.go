// Package inmemdb provides map-backed repositories for tests and local
// development. Each repository guards its tables with a single mutex so
// check-then-insert sequences are atomic, mirroring the SQL constraints of
// the postgres implementation.
package inmemdb

import (
	"sync"

	"github.com/WMS-GIETU/WorkshopMS/core/album"
	"github.com/WMS-GIETU/WorkshopMS/core/attendance"
	"github.com/WMS-GIETU/WorkshopMS/core/face"
	"github.com/WMS-GIETU/WorkshopMS/core/registration"
	"github.com/WMS-GIETU/WorkshopMS/core/user"
	"github.com/WMS-GIETU/WorkshopMS/core/workshop"
)

type DB struct {
	mutex sync.RWMutex

	users         map[string]*user.User
	regRequests   map[string]*registration.Request
	workshops     map[string]*workshop.Workshop
	images        map[string]*workshop.Image
	wsRequests    map[string]*workshop.Request
	registrations map[string]*workshop.Registration
	attendees     map[string][]attendance.Attendee // keyed by workshop id, in marking order
	albumImages   map[string]*album.Image
	faceData      map[string]*face.Data // keyed by user id
	faceRequests  map[string]*face.UpdateRequest
}

func NewDB() *DB {
	return &DB{
		users:         make(map[string]*user.User),
		regRequests:   make(map[string]*registration.Request),
		workshops:     make(map[string]*workshop.Workshop),
		images:        make(map[string]*workshop.Image),
		wsRequests:    make(map[string]*workshop.Request),
		registrations: make(map[string]*workshop.Registration),
		attendees:     make(map[string][]attendance.Attendee),
		albumImages:   make(map[string]*album.Image),
		faceData:      make(map[string]*face.Data),
		faceRequests:  make(map[string]*face.UpdateRequest),
	}
}
