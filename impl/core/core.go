package core

import (
	"fmt"
	"log/slog"
	"time"

	"groupsight/entity"
	"groupsight/lib/sl"
)

// Database is the storage surface the core depends on.
// Implemented by internal/database.MySql.
type Database interface {
	EnsurePersonalTenant(ownerTgId int64, name string) (string, error)
	LinkUserTenant(tgId int64, tenantId string) error
	UserTenant(tgId int64) (string, error)
	Tenant(tenantId string) (*entity.Tenant, error)
	TenantsPage(search string, limit, offset int) ([]*entity.TenantSummary, error)
	CountTenants() (int, error)
	CountUsers() (int, error)
	CountPremiumUsers() (int, error)
	CountChats() (int, error)

	UpsertUser(user *entity.User) error
	GetUser(tgId int64) (*entity.User, error)
	TouchSeen(tgId int64) error
	SetUserPhone(tgId int64, phone string) error
	SetUserRegion(tgId int64, region string) error

	IncJoin(chatId int64, day time.Time) error
	IncLeave(chatId int64, day time.Time) error
	IncMessage(chatId, tgId int64, day time.Time) error
	ActivityLastDays(chatId int64, days int) ([]entity.ActivityStat, error)
	RecordEvent(event *entity.MemberEvent) error
	UpsertChatUserIndex(chatId, tgId int64, isMember bool, ts time.Time) error
	CampaignByInviteLink(chatId int64, inviteURL string) (string, error)
	RecordCampaignJoin(chatId, userId int64, campaignName string) error

	UpsertChat(chat *entity.Chat) error
	TenantChats(tenantId string) ([]*entity.Chat, error)
	AllChannels() ([]int64, error)
	UpsertChannelCount(chatId int64, day time.Time, count int) error

	LastDays(chatId int64, days int) ([]entity.DailyStat, error)
	WeeklyStats(chatId int64, weeks int) ([]entity.PeriodStat, error)
	MonthlyStats(chatId int64, months int) ([]entity.PeriodStat, error)
	TopCampaigns(chatId int64, limit int) ([]entity.CampaignStat, error)

	ActivePlans() ([]*entity.Plan, error)
	PlanByCode(code string) (*entity.Plan, error)
	Subscription(tgId int64) (*entity.Subscription, error)
	ExpiringSubscriptions(within time.Duration) ([]*entity.Subscription, error)
	ExtendSubscription(tgId int64, planCode string, days int) (*entity.Subscription, error)
	SavePayment(payment *entity.Payment) error

	ExpiredUnverified(limit int) ([]*entity.PendingVerification, error)
	DeletePending(chatId, userId int64) error
}

// Archive is the optional best-effort audit store.
// Implemented by internal/database.MongoDB; may be nil.
type Archive interface {
	ArchiveEvent(event *entity.MemberEvent) error
	ArchivePayment(payment *entity.Payment) error
	ArchiveBroadcast(run interface{}) error
	RecentEvents(chatId int64, limit int64) ([]*entity.MemberEvent, error)
}

// AuthService validates mini-app init data.
type AuthService interface {
	UserByInitData(initData string) (*entity.User, error)
}

type Core struct {
	db          Database
	archive     Archive
	auth        AuthService
	ownerId     int64
	botUsername string
	log         *slog.Logger
}

func New(db Database, ownerId int64, botUsername string, log *slog.Logger) *Core {
	if db == nil {
		panic("database is nil")
	}
	return &Core{
		db:          db,
		ownerId:     ownerId,
		botUsername: botUsername,
		log:         log.With(sl.Module("core")),
	}
}

func (c *Core) SetArchive(archive Archive) {
	c.archive = archive
}

func (c *Core) SetAuthService(auth AuthService) {
	c.auth = auth
}

func (c *Core) AuthenticateInitData(initData string) (*entity.User, error) {
	if c.auth == nil {
		return nil, fmt.Errorf("auth service not connected")
	}
	return c.auth.UserByInitData(initData)
}

// IsOwner reports whether the given user is the bot owner. The owner always
// resolves to Pro and bypasses payment.
func (c *Core) IsOwner(tgId int64) bool {
	return c.ownerId != 0 && tgId == c.ownerId
}

func (c *Core) BotUsername() string {
	return c.botUsername
}

// ArchiveBroadcast stores a finished broadcast run in the audit archive.
// Failures only log; delivery already happened.
func (c *Core) ArchiveBroadcast(run interface{}) {
	if c.archive == nil {
		return
	}
	if err := c.archive.ArchiveBroadcast(run); err != nil {
		c.log.Warn("archiving broadcast run", sl.Err(err))
	}
}

// RecentChatEvents reads the latest archived join/leave events of a chat for
// support lookups. Empty when no archive is connected.
func (c *Core) RecentChatEvents(chatId int64, limit int64) ([]*entity.MemberEvent, error) {
	if c.archive == nil {
		return nil, nil
	}
	return c.archive.RecentEvents(chatId, limit)
}

// archiveEvent forwards to the archive when connected; failures only log.
func (c *Core) archiveEvent(event *entity.MemberEvent) {
	if c.archive == nil {
		return
	}
	if err := c.archive.ArchiveEvent(event); err != nil {
		c.log.Warn("archiving event", sl.Chat(event.ChatId), sl.Err(err))
	}
}
