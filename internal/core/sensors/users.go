package sensors

import (
	"sort"
	"time"

	"github.com/berfenger/hostagent2mqtt/internal/core/entity"
	"github.com/berfenger/hostagent2mqtt/internal/core/port"
	"go.uber.org/zap"
)

const (
	DEFAULT_USERS_INTERVAL = 10 * time.Second
	NO_USER                = "None"
)

// loggedUsers returns the distinct non-system users, active sessions first.
func loggedUsers(sessions []port.UserSession) []string {
	sorted := append([]port.UserSession{}, sessions...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Active && !sorted[j].Active
	})
	seen := map[string]bool{}
	users := []string{}
	for _, s := range sorted {
		if s.System || s.User == "" || seen[s.User] {
			continue
		}
		seen[s.User] = true
		users = append(users, s.User)
	}
	return users
}

type LoggedUserSensor struct {
	*entity.BaseSensor
	source port.UserSource
}

func NewLoggedUserSensor(id *entity.Identity, interval time.Duration, source port.UserSource, logger *zap.Logger) *LoggedUserSensor {
	if interval == 0 {
		interval = DEFAULT_USERS_INTERVAL
	}
	return &LoggedUserSensor{
		BaseSensor: entity.NewBaseSensor(id, interval, entity.SensorOptions{Icon: ICON_USERS}, logger),
		source:     source,
	}
}

// State is the first logged user, or "None".
func (s *LoggedUserSensor) State() string {
	ctx, cancel := readContext()
	defer cancel()
	sessions, err := s.source.Sessions(ctx)
	if err != nil {
		s.Logger.Error("user sessions read failed", zap.Error(err))
		return NO_USER
	}
	users := loggedUsers(sessions)
	if len(users) == 0 {
		return NO_USER
	}
	return users[0]
}

type LoggedUsersSensor struct {
	*entity.BaseSensor
	source port.UserSource
}

func NewLoggedUsersSensor(id *entity.Identity, interval time.Duration, source port.UserSource, logger *zap.Logger) *LoggedUsersSensor {
	if interval == 0 {
		interval = DEFAULT_USERS_INTERVAL
	}
	id.UseAttributes = true
	return &LoggedUsersSensor{
		BaseSensor: entity.NewBaseSensor(id, interval, entity.SensorOptions{Icon: ICON_USERS, StateClass: STATE_CLASS_MEAS}, logger),
		source:     source,
	}
}

func (s *LoggedUsersSensor) users() []string {
	ctx, cancel := readContext()
	defer cancel()
	sessions, err := s.source.Sessions(ctx)
	if err != nil {
		s.Logger.Error("user sessions read failed", zap.Error(err))
		return []string{}
	}
	return loggedUsers(sessions)
}

func (s *LoggedUsersSensor) State() string {
	return formatFloat(float64(len(s.users())))
}

func (s *LoggedUsersSensor) Attributes() string {
	return entity.MarshalAttributes(map[string][]string{"users": s.users()})
}
