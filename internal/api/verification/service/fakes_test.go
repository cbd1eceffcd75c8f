package verificationService

import (
	"FaceGate/internal/api/verification"
	verificationRepository "FaceGate/internal/api/verification/repository"
	"FaceGate/internal/entity"
	"FaceGate/pkg/biometric"
	"FaceGate/pkg/redis"
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testBiometricConfig() biometric.Config {
	return biometric.Config{
		FrameTimeout:      200 * time.Millisecond,
		EmbedTimeout:      200 * time.Millisecond,
		ReferenceTimeout:  200 * time.Millisecond,
		LivenessTimeout:   50 * time.Millisecond,
		FramePollInterval: 5 * time.Millisecond,
		MaxFrameAttempts:  3,
		LivenessFrames:    1,
	}
}

func descriptorOf(v float64) entity.FaceDescriptor {
	d := make(entity.FaceDescriptor, entity.DescriptorSize)
	for i := range d {
		d[i] = v
	}
	return d
}

func encodePNG(img image.Image) []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// goodCapture is a sharp, evenly lit 200x200 frame.
func goodCapture() []byte {
	img := image.NewGray(image.Rect(0, 0, 200, 200))
	for y := 0; y < 200; y++ {
		for x := 0; x < 200; x++ {
			v := uint8(100)
			if (x+y)%2 == 0 {
				v = 160
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return encodePNG(img)
}

func darkCapture() []byte {
	return encodePNG(image.NewGray(image.Rect(0, 0, 200, 200)))
}

func centeredFace() entity.FaceRegion {
	return entity.FaceRegion{
		Box:        entity.BoundingBox{X: 50, Y: 50, Width: 100, Height: 100},
		Confidence: 0.98,
		Landmarks: &entity.Landmarks{
			LeftEye:    &entity.Point{X: 80, Y: 85},
			RightEye:   &entity.Point{X: 120, Y: 85},
			Nose:       &entity.Point{X: 100, Y: 107},
			MouthLeft:  &entity.Point{X: 85, Y: 125},
			MouthRight: &entity.Point{X: 115, Y: 125},
		},
	}
}

type fakeDetector struct {
	faces []entity.FaceRegion
	err   error
	mu    sync.Mutex
	calls int
}

func (d *fakeDetector) Detect(_ context.Context, _ entity.Frame) ([]entity.FaceRegion, error) {
	d.mu.Lock()
	d.calls++
	d.mu.Unlock()
	return d.faces, d.err
}

func (d *fakeDetector) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

type fakeEmbedder struct {
	descriptor entity.FaceDescriptor
	mu         sync.Mutex
	calls      int
}

func (e *fakeEmbedder) Embed(_ context.Context, _ entity.Frame, _ entity.FaceRegion) (entity.FaceDescriptor, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	return e.descriptor.Clone(), nil
}

func (e *fakeEmbedder) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

type fakeRepository struct {
	mu            sync.Mutex
	references    map[string]entity.FaceReference
	attempts      []entity.VerificationAttempt
	getErr        error
	upsertErr     error
	commitErr     error
	commits       int
	rollbacks     int
	stallAttempts bool
	// afterGet runs outside the lock once a reference read has been served.
	afterGet func(userID string)
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{references: map[string]entity.FaceReference{}}
}

func (r *fakeRepository) NewClient(_ bool) (verificationRepository.Client, error) {
	return verificationRepository.Client{
		Reference: &fakeReferenceRepo{r: r},
		Attempt:   &fakeAttemptRepo{r: r},
		Commit: func() error {
			r.mu.Lock()
			defer r.mu.Unlock()
			if r.commitErr != nil {
				return r.commitErr
			}
			r.commits++
			return nil
		},
		Rollback: func() error {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.rollbacks++
			return nil
		},
	}, nil
}

func (r *fakeRepository) Attempts() []entity.VerificationAttempt {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entity.VerificationAttempt, len(r.attempts))
	copy(out, r.attempts)
	return out
}

func (r *fakeRepository) Reference(userID string) (entity.FaceReference, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ref, ok := r.references[userID]
	return ref, ok
}

type fakeReferenceRepo struct {
	r *fakeRepository
}

func (f *fakeReferenceRepo) UpsertReference(_ context.Context, reference entity.FaceReference) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	if f.r.upsertErr != nil {
		return f.r.upsertErr
	}
	reference.UpdatedAt = time.Now()
	f.r.references[reference.UserID] = reference
	return nil
}

func (f *fakeReferenceRepo) GetReferenceByUserID(_ context.Context, userID string) (entity.FaceReference, error) {
	f.r.mu.Lock()
	getErr := f.r.getErr
	ref, ok := f.r.references[userID]
	afterGet := f.r.afterGet
	f.r.mu.Unlock()

	if afterGet != nil {
		afterGet(userID)
	}
	if getErr != nil {
		return entity.FaceReference{}, getErr
	}
	if !ok {
		return entity.FaceReference{}, verification.ErrReferenceNotFound
	}
	return ref, nil
}

func (f *fakeReferenceRepo) DeleteReference(_ context.Context, userID string) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	if _, ok := f.r.references[userID]; !ok {
		return verification.ErrReferenceNotFound
	}
	delete(f.r.references, userID)
	return nil
}

type fakeAttemptRepo struct {
	r *fakeRepository
}

func (f *fakeAttemptRepo) CreateAttempt(ctx context.Context, attempt entity.VerificationAttempt) error {
	f.r.mu.Lock()
	stall := f.r.stallAttempts
	f.r.mu.Unlock()
	if stall {
		<-ctx.Done()
		return ctx.Err()
	}

	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	f.r.attempts = append(f.r.attempts, attempt)
	return nil
}

func (f *fakeAttemptRepo) GetAttemptsByUserID(_ context.Context, userID string, limit int) ([]entity.VerificationAttempt, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	var out []entity.VerificationAttempt
	for _, a := range f.r.attempts {
		if a.UserID == userID && len(out) < limit {
			out = append(out, a)
		}
	}
	return out, nil
}

var errRedisDown = errors.New("redis: connection refused")

type fakeRedis struct {
	mu          sync.Mutex
	locks       map[string]string
	cache       map[string]entity.FaceDescriptor
	generations map[string]int64
	lockErr     error
	released int
	deleted  int
	sets     int
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{
		locks:       map[string]string{},
		cache:       map[string]entity.FaceDescriptor{},
		generations: map[string]int64{},
	}
}

func (f *fakeRedis) Ping(_ context.Context) error {
	return nil
}

func (f *fakeRedis) AcquireAttemptLock(_ context.Context, userID string, token string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lockErr != nil {
		return f.lockErr
	}
	if _, held := f.locks[userID]; held {
		return redis.ErrLockHeld
	}
	f.locks[userID] = token
	return nil
}

func (f *fakeRedis) ReleaseAttemptLock(_ context.Context, userID string, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.locks[userID] == token {
		delete(f.locks, userID)
	}
	f.released++
	return nil
}

func (f *fakeRedis) GetReferenceDescriptor(_ context.Context, userID string) (entity.FaceDescriptor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.cache[userID]
	if !ok {
		return nil, redis.ErrCacheMiss
	}
	return d.Clone(), nil
}

func (f *fakeRedis) ReferenceGeneration(_ context.Context, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.generations[userID], nil
}

func (f *fakeRedis) SetReferenceDescriptor(_ context.Context, userID string, descriptor entity.FaceDescriptor, generation int64, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.generations[userID] != generation {
		return redis.ErrStaleReference
	}
	f.cache[userID] = descriptor.Clone()
	f.sets++
	return nil
}

func (f *fakeRedis) DeleteReferenceDescriptor(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.cache, userID)
	f.generations[userID]++
	f.deleted++
	return nil
}

func (f *fakeRedis) Cached(userID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.cache[userID]
	return ok
}

func (f *fakeRedis) Locked(userID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.locks[userID]
	return ok
}

type fakeS3 struct {
	mu       sync.Mutex
	uploaded map[string][]byte
	deleted  []string
	err      error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{uploaded: map[string][]byte{}}
}

func (f *fakeS3) UploadBytes(_ context.Context, key string, body []byte, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.uploaded[key] = body
	return "https://bucket.s3.amazonaws.com/" + key, nil
}

func (f *fakeS3) PresignUrl(fileUrl string) (string, error) {
	return fileUrl + "?signed=1", nil
}

func (f *fakeS3) DeleteFile(_ context.Context, fileUrl string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, fileUrl)
	return nil
}
