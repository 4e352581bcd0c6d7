package storage

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/argon2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"tideland.dev/go/slices"

	"github.com/brito101/medicaodigitalx/storage/model"
)

// UsersStorage returns a UsersStorage
func (s *Storage) UsersStorage() *UsersStorage {
	return &UsersStorage{db: s.db, params: s.userParams}
}

// UsersStorage implements model.UsersStore using GORM
type UsersStorage struct {
	db     *gorm.DB
	params Argon2idParams
}

// Count returns the number of users present in the store
func (s *UsersStorage) Count() (int64, error) {
	var count int64
	if err := s.db.Model(&model.User{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// List returns all users with their permissions (without password hashes)
func (s *UsersStorage) List() ([]model.User, error) {
	var users []model.User
	if err := s.db.Model(&model.User{}).Preload("Permissions").Order("username").Find(&users).Error; err != nil {
		return nil, err
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}

// Get returns a user with its permissions by username
func (s *UsersStorage) Get(username string) (*model.User, error) {
	return s.first("username = ?", username)
}

// GetByID returns a user with its permissions by id
func (s *UsersStorage) GetByID(id uint) (*model.User, error) {
	return s.first("id = ?", id)
}

func (s *UsersStorage) first(query string, arg any) (*model.User, error) {
	var u model.User
	if err := s.db.Preload("Permissions").Where(query, arg).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.NotFoundErrorFmt("user not found: %v", arg)
		}
		return nil, err
	}
	u.PasswordHash = ""
	return &u, nil
}

// Missing returns the ids out of ids that do not belong to a user
func (s *UsersStorage) Missing(ids []uint) ([]uint, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var found []uint
	if err := s.db.Model(&model.User{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return nil, err
	}
	return slices.Subtract(ids, found), nil
}

// Create creates a user with an Argon2id-hashed password
func (s *UsersStorage) Create(username, password, displayName, email string) (*model.User, error) {
	if len(username) == 0 || len(password) == 0 {
		return nil, errors.Errorf("username and password are required")
	}
	var existing int64
	if err := s.db.Model(&model.User{}).Where("username = ?", username).Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, model.AlreadyExistsErrorFmt("user already exists: %s", username)
	}
	hash, err := hashPasswordArgon2id(password, s.params)
	if err != nil {
		return nil, err
	}
	u := model.User{
		Username:     username,
		PasswordHash: hash,
		DisplayName:  displayName,
		Email:        email,
	}
	if err = s.db.Create(&u).Error; err != nil {
		return nil, err
	}
	u.PasswordHash = ""
	return &u, nil
}

// Update applies the non-nil fields of update
func (s *UsersStorage) Update(username string, update model.UserUpdate) (*model.User, error) {
	var u model.User
	if err := s.db.Where("username = ?", username).First(&u).Error; err != nil {
		return nil, model.NotFoundErrorFmt("user not found: %s", username)
	}
	if update.DisplayName != nil {
		u.DisplayName = *update.DisplayName
	}
	if update.Email != nil {
		u.Email = *update.Email
	}
	if update.Disabled != nil {
		u.Disabled = *update.Disabled
	}
	if update.Password != nil {
		if len(*update.Password) == 0 {
			return nil, errors.Errorf("password cannot be empty")
		}
		hash, err := hashPasswordArgon2id(*update.Password, s.params)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = hash
	}
	if err := s.db.Omit(clause.Associations).Save(&u).Error; err != nil {
		return nil, err
	}
	return s.Get(username)
}

// Delete deletes a user and its permissions by username
func (s *UsersStorage) Delete(username string) error {
	return s.db.Transaction(
		func(tx *gorm.DB) error {
			var u model.User
			if err := tx.Where("username = ?", username).First(&u).Error; err != nil {
				return model.NotFoundErrorFmt("user not found: %s", username)
			}
			if err := tx.Where("user_id = ?", u.ID).Delete(&model.UserPermission{}).Error; err != nil {
				return err
			}
			return tx.Delete(&u).Error
		},
	)
}

// Authenticate validates username/password and auto-upgrades hash if params changed
func (s *UsersStorage) Authenticate(username, password string) (*model.User, error) {
	var u model.User
	if err := s.db.Preload("Permissions").Where("username = ?", username).First(&u).Error; err != nil {
		return nil, model.NotFoundErrorFmt("user not found: %s", username)
	}
	if u.Disabled {
		return nil, errors.Errorf("user disabled")
	}
	ok, err := verifyPasswordArgon2id(u.PasswordHash, password)
	if err != nil || !ok {
		return nil, errors.Errorf("invalid credentials")
	}
	if stored, err := extractArgon2idParams(u.PasswordHash); err == nil && !argon2idParamsEqual(stored, s.params) {
		if newHash, err := hashPasswordArgon2id(password, s.params); err == nil {
			_ = s.db.Model(&model.User{}).Where("id = ?", u.ID).Update("password_hash", newHash).Error
		}
	}
	u.PasswordHash = ""
	return &u, nil
}

// Permissions returns the capabilities granted to the user
func (s *UsersStorage) Permissions(userID uint) (model.CapabilitySet, error) {
	var caps []model.Capability
	if err := s.db.Model(&model.UserPermission{}).
		Where("user_id = ?", userID).
		Pluck("capability", &caps).Error; err != nil {
		return nil, err
	}
	return model.NewCapabilitySet(caps...), nil
}

// SetPermissions replaces the capabilities granted to the user
func (s *UsersStorage) SetPermissions(username string, caps []model.Capability) (*model.User, error) {
	return s.changePermissions(
		username, func(tx *gorm.DB, userID uint) error {
			if err := tx.Where("user_id = ?", userID).Delete(&model.UserPermission{}).Error; err != nil {
				return err
			}
			return insertPermissions(tx, userID, caps)
		},
	)
}

// Grant adds capabilities to the user; already granted ones are ignored
func (s *UsersStorage) Grant(username string, caps ...model.Capability) (*model.User, error) {
	return s.changePermissions(
		username, func(tx *gorm.DB, userID uint) error {
			return insertPermissions(tx, userID, caps)
		},
	)
}

// Revoke removes capabilities from the user
func (s *UsersStorage) Revoke(username string, caps ...model.Capability) (*model.User, error) {
	return s.changePermissions(
		username, func(tx *gorm.DB, userID uint) error {
			if len(caps) == 0 {
				return nil
			}
			return tx.Where("user_id = ? AND capability IN ?", userID, caps).Delete(&model.UserPermission{}).Error
		},
	)
}

func (s *UsersStorage) changePermissions(username string, change func(tx *gorm.DB, userID uint) error) (
	*model.User, error,
) {
	err := s.db.Transaction(
		func(tx *gorm.DB) error {
			var u model.User
			if err := tx.Select("id").Where("username = ?", username).First(&u).Error; err != nil {
				return model.NotFoundErrorFmt("user not found: %s", username)
			}
			return change(tx, u.ID)
		},
	)
	if err != nil {
		return nil, err
	}
	return s.Get(username)
}

func insertPermissions(tx *gorm.DB, userID uint, caps []model.Capability) error {
	rows := make([]model.UserPermission, 0, len(caps))
	for _, c := range caps {
		if !c.Valid() {
			return errors.Errorf("unknown capability: %s", c)
		}
		rows = append(
			rows, model.UserPermission{
				UserID:     userID,
				Capability: c,
			},
		)
	}
	if len(rows) == 0 {
		return nil
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

// hashPasswordArgon2id returns a PHC-formatted argon2id hash string
// Format: $argon2id$v=19$m=65536,t=1,p=4$<saltB64>$<hashB64>
func hashPasswordArgon2id(password string, p Argon2idParams) (string, error) {
	if p.Time == 0 {
		p = defaultArgon2idParams()
	}
	salt := make([]byte, p.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	dk := argon2.IDKey([]byte(password), salt, p.Time, p.MemoryKiB, p.Parallelism, p.KeyLen)
	saltB64 := base64.RawStdEncoding.EncodeToString(salt)
	hashB64 := base64.RawStdEncoding.EncodeToString(dk)
	return fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s", p.MemoryKiB, p.Time, p.Parallelism, saltB64, hashB64), nil
}

// verifyPasswordArgon2id verifies the given password against a PHC-formatted argon2id hash
func verifyPasswordArgon2id(encoded, password string) (bool, error) {
	params, salt, hash, err := parseArgon2id(encoded)
	if err != nil {
		return false, err
	}
	dk := argon2.IDKey([]byte(password), salt, params.Time, params.MemoryKiB, params.Parallelism, uint32(len(hash)))
	if subtle.ConstantTimeCompare(dk, hash) == 1 {
		return true, nil
	}
	return false, nil
}

// extractArgon2idParams parses a PHC-formatted argon2id string and returns parameters
func extractArgon2idParams(encoded string) (Argon2idParams, error) {
	p, _, _, err := parseArgon2id(encoded)
	return p, err
}

// parseArgon2id parses a PHC-formatted argon2id hash and returns parameters, salt and hash bytes.
func parseArgon2id(encoded string) (Argon2idParams, []byte, []byte, error) {
	var out Argon2idParams
	if !strings.HasPrefix(encoded, "$argon2id$") {
		return out, nil, nil, errors.Errorf("unsupported password hash format")
	}
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return out, nil, nil, errors.Errorf("invalid argon2id hash format")
	}
	if parts[2] != "v=19" {
		return out, nil, nil, errors.Errorf("unsupported argon2 version")
	}
	for _, kv := range strings.Split(parts[3], ",") {
		if strings.HasPrefix(kv, "m=") {
			v, err := strconv.ParseUint(strings.TrimPrefix(kv, "m="), 10, 32)
			if err != nil {
				return out, nil, nil, err
			}
			out.MemoryKiB = uint32(v)
		} else if strings.HasPrefix(kv, "t=") {
			v, err := strconv.ParseUint(strings.TrimPrefix(kv, "t="), 10, 32)
			if err != nil {
				return out, nil, nil, err
			}
			out.Time = uint32(v)
		} else if strings.HasPrefix(kv, "p=") {
			v, err := strconv.ParseUint(strings.TrimPrefix(kv, "p="), 10, 8)
			if err != nil {
				return out, nil, nil, err
			}
			out.Parallelism = uint8(v)
		}
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return out, nil, nil, err
	}
	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return out, nil, nil, err
	}
	out.SaltLen = uint32(len(salt))
	out.KeyLen = uint32(len(hash))
	return out, salt, hash, nil
}

func argon2idParamsEqual(a, b Argon2idParams) bool {
	return a.Time == b.Time && a.MemoryKiB == b.MemoryKiB && a.Parallelism == b.Parallelism && a.KeyLen == b.KeyLen && a.SaltLen == b.SaltLen
}

func defaultArgon2idParams() Argon2idParams {
	return Argon2idParams{Time: 1, MemoryKiB: 64 * 1024, Parallelism: 4, KeyLen: 32, SaltLen: 16}
}
