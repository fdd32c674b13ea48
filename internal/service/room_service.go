package service

import (
	"context"
	"fmt"
	"path"
	"strings"
	"sync/atomic"

	"seminar/internal/domain"
	"seminar/internal/events"
	"seminar/internal/metrics"
	"seminar/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RoomService manages the room directory and the pictures attached to rooms.
type RoomService struct {
	rooms         domain.RoomStore
	images        domain.ImageStore
	cache         domain.RoomCache
	eventBus      domain.EventPublisher
	replaceImages bool
	logger        *zerolog.Logger

	// generation counts cache invalidations so a listing read before a
	// room change is never left in the cache after it.
	generation atomic.Uint64
	newBatch   func() string
}

// NewRoomService wires the directory. cache may be nil. With replaceImages
// set, an update carrying files swaps the stored pictures for the new ones;
// otherwise uploaded files on update are ignored.
func NewRoomService(rooms domain.RoomStore, images domain.ImageStore, cache domain.RoomCache,
	eventBus domain.EventPublisher, replaceImages bool, logger *zerolog.Logger,
) *RoomService {
	return &RoomService{
		rooms:         rooms,
		images:        images,
		cache:         cache,
		eventBus:      eventBus,
		replaceImages: replaceImages,
		logger:        logger,
		newBatch:      newBatchID,
	}
}

func newBatchID() string {
	return uuid.NewString()[:8]
}

// Create stores the room, then uploads its pictures under room/<id>/.
// If an upload fails the room and already uploaded pictures are removed.
func (s *RoomService) Create(ctx context.Context, room *models.Room, files []models.ImageFile) (*models.Room, error) {
	if err := s.rooms.CreateRoom(ctx, room); err != nil {
		return nil, err
	}

	images, err := s.upload(ctx, room.ID, files)
	if err == nil && len(images) > 0 {
		err = s.rooms.ReplaceRoomImages(ctx, room.ID, images)
		if err != nil {
			s.deleteImages(ctx, keysOf(images))
		}
	}
	if err != nil {
		if delErr := s.rooms.DeleteRoom(ctx, room.ID); delErr != nil {
			s.logger.Error().Err(delErr).Int64("room_id", room.ID).Msg("rollback room after failed image upload")
		}
		return nil, err
	}
	room.Images = images

	s.invalidate(ctx)
	s.publishEvent(events.EventRoomCreated, room)
	return room, nil
}

// Update overwrites the room attributes and returns the stored room. The
// cache is dropped once the attributes are written, even if the image swap
// then fails.
func (s *RoomService) Update(ctx context.Context, room *models.Room, files []models.ImageFile) (*models.Room, error) {
	if err := s.rooms.UpdateRoom(ctx, room); err != nil {
		return nil, err
	}
	defer s.invalidate(ctx)

	if len(files) > 0 {
		if s.replaceImages {
			if err := s.swapImages(ctx, room.ID, files); err != nil {
				return nil, err
			}
		} else {
			s.logger.Debug().Int64("room_id", room.ID).Int("files", len(files)).Msg("image replacement disabled, files ignored")
		}
	}

	updated, err := s.rooms.GetRoom(ctx, room.ID)
	if err != nil {
		return nil, err
	}

	s.publishEvent(events.EventRoomUpdated, updated)
	return updated, nil
}

// Delete removes the room, its reservations and its stored pictures.
// Picture removal is best effort.
func (s *RoomService) Delete(ctx context.Context, id int64) error {
	room, err := s.rooms.GetRoom(ctx, id)
	if err != nil {
		return err
	}
	if err := s.rooms.DeleteRoom(ctx, id); err != nil {
		return err
	}

	s.deleteImages(ctx, room.ImageKeys())
	s.invalidate(ctx)
	s.publishEvent(events.EventRoomDeleted, room)
	return nil
}

func (s *RoomService) Get(ctx context.Context, id int64) (*models.Room, error) {
	return s.rooms.GetRoom(ctx, id)
}

// ListAll returns every room, available or not.
func (s *RoomService) ListAll(ctx context.Context) ([]*models.Room, error) {
	return s.rooms.ListRooms(ctx, false)
}

// ListAvailable returns rooms open for reservation, served from the cache when warm.
func (s *RoomService) ListAvailable(ctx context.Context) ([]*models.Room, error) {
	if s.cache != nil {
		cached, err := s.cache.GetRooms(ctx)
		if err != nil {
			s.logger.Warn().Err(err).Msg("room cache read failed")
		}
		metrics.IncRoomCache(cached != nil)
		if cached != nil {
			return cached, nil
		}
	}

	gen := s.generation.Load()
	rooms, err := s.rooms.ListRooms(ctx, true)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && s.generation.Load() == gen {
		if err := s.cache.SetRooms(ctx, rooms); err != nil {
			s.logger.Warn().Err(err).Msg("room cache write failed")
		}
		// a room change that landed during the write may have been overwritten
		if s.generation.Load() != gen {
			s.dropCache(ctx)
		}
	}
	return rooms, nil
}

// SeedIfEmpty inserts rooms when the directory has none. It returns the
// number of rooms inserted.
func (s *RoomService) SeedIfEmpty(ctx context.Context, rooms []*models.Room) (int, error) {
	count, err := s.rooms.CountRooms(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 || len(rooms) == 0 {
		return 0, nil
	}

	for i, room := range rooms {
		if err := s.rooms.CreateRoom(ctx, room); err != nil {
			return i, fmt.Errorf("seed room %q: %w", room.Name, err)
		}
	}
	s.invalidate(ctx)
	return len(rooms), nil
}

// swapImages uploads the new pictures under a fresh batch, points the room at
// them and only then drops the previous objects. Until ReplaceRoomImages
// commits, the stored keys stay untouched.
func (s *RoomService) swapImages(ctx context.Context, roomID int64, files []models.ImageFile) error {
	current, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}

	images, err := s.upload(ctx, roomID, files)
	if err != nil {
		return err
	}
	if err := s.rooms.ReplaceRoomImages(ctx, roomID, images); err != nil {
		s.deleteImages(ctx, keysOf(images))
		return err
	}

	s.deleteImages(ctx, staleKeys(current.Images, images))
	return nil
}

// staleKeys returns the keys of old whose stored object is not shared with
// any image in replaced.
func staleKeys(old, replaced []models.RoomImage) []string {
	live := make(map[string]struct{}, len(replaced))
	for _, img := range replaced {
		live[models.ImageObjectID(img.Key)] = struct{}{}
	}
	var stale []string
	for _, img := range old {
		if _, ok := live[models.ImageObjectID(img.Key)]; !ok {
			stale = append(stale, img.Key)
		}
	}
	return stale
}

// upload puts files into the object store under one new batch. On failure
// the objects of this batch are removed; nothing else is touched.
func (s *RoomService) upload(ctx context.Context, roomID int64, files []models.ImageFile) ([]models.RoomImage, error) {
	batch := s.newBatch()
	images := make([]models.RoomImage, 0, len(files))
	for i, f := range files {
		key := ImageKey(roomID, batch, i, f.Name)
		url, err := s.images.Upload(ctx, key, f.Data)
		if err != nil {
			s.deleteImages(ctx, keysOf(images))
			return nil, fmt.Errorf("upload image %q: %w", f.Name, err)
		}
		images = append(images, models.RoomImage{Position: i, Key: key, URL: url})
	}
	return images, nil
}

func (s *RoomService) deleteImages(ctx context.Context, keys []string) {
	if len(keys) == 0 {
		return
	}
	if err := s.images.Delete(ctx, keys); err != nil {
		s.logger.Warn().Err(err).Strs("keys", keys).Msg("delete room images")
	}
}

func (s *RoomService) invalidate(ctx context.Context) {
	s.generation.Add(1)
	s.dropCache(ctx)
}

func (s *RoomService) dropCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("room cache invalidate failed")
	}
}

func (s *RoomService) publishEvent(eventType string, room *models.Room) {
	if s.eventBus == nil {
		return
	}
	payload := events.RoomEventPayload{
		RoomID:    room.ID,
		Name:      room.Name,
		Available: room.Available,
		Images:    len(room.Images),
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event", eventType).Int64("room_id", room.ID).Msg("publish room event")
	}
}

// ImageKey is the object-store key of the index-th picture of an upload
// batch, keeping the original file extension: room/<id>/<batch>-<index><ext>.
func ImageKey(roomID int64, batch string, index int, filename string) string {
	return fmt.Sprintf("%s%s-%d%s", models.RoomImagePrefix(roomID), batch, index, strings.ToLower(path.Ext(filename)))
}

func keysOf(images []models.RoomImage) []string {
	keys := make([]string, 0, len(images))
	for _, img := range images {
		keys = append(keys, img.Key)
	}
	return keys
}
