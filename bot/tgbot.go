// Package bot implements the Telegram side of the group analytics service.
//
// Architecture overview:
//   - tgbot.go     — TgBot struct, lifecycle (Start/Stop), Database and Service interfaces
//   - commands.go  — User commands: /start, /link, /stats, /export, /plans, /region, /status, /help
//   - members.go   — chat_member / my_chat_member updates, service-message fallback, activity counting
//   - gate.go      — Force-join gate: restrict on join, verify callback, deadline sweep
//   - campaigns.go — Campaign invite links: /campaign, /campaigns, /topcampaigns
//   - payments.go  — Telegram Stars invoices, pre-checkout, successful payments
//   - admin.go     — Owner commands: /tenants, /usage, /require, /setprice, /broadcast, /massdm
//   - broadcast.go — Chunked message delivery with a pause between chunks
//   - callbacks.go — Inline keyboard builders and callback query handlers
//   - menus.go     — Command menus via Telegram's BotCommandScope API
//   - helpers.go   — Shared utilities: plainResponse, splitMessage, isMemberOf, reportError
//
// Data flow for a join: chat_member update → TrackJoin (counters, event stream,
// campaign attribution) → force-join gate when the group has targets configured.
//
// Thread safety: selfAdmin and the owner compose state are guarded by mu.
package bot

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"groupsight/entity"
	"groupsight/lib/sl"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers/filters/callbackquery"
)

// BotConfig holds Telegram-specific configuration loaded from the YAML config file.
type BotConfig struct {
	OwnerId        int64
	BotUsername    string
	WebAppUrl      string
	VerifyTTL      time.Duration
	SweepBatch     int
	BroadcastChunk int
	BroadcastPause time.Duration
}

// Database defines the storage operations the bot calls directly.
// Implemented by internal/database.MySql.
type Database interface {
	GetUser(tgId int64) (*entity.User, error)
	AllUserIds() ([]int64, error)

	UpsertCampaignLink(link *entity.CampaignLink) error
	CampaignLinks(chatId int64) ([]*entity.CampaignLink, error)
	ClearCampaignLinks(chatId int64) error

	GroupTargets(chatId int64) ([]*entity.GateTarget, error)
	AddGroupTarget(target *entity.GateTarget) error
	RemoveGroupTarget(chatId int64, target string) error
	ClearGroupTargets(chatId int64) error
	RequiredTargets() ([]string, error)
	AddRequiredTarget(target string, addedBy int64) error
	RemoveRequiredTarget(target string) error
	UpsertPending(chatId, userId int64, ttl time.Duration) error
	MarkVerified(userId int64) ([]int64, error)
	PendingChats(userId int64) ([]int64, error)

	AllPlans() ([]*entity.Plan, error)
	SetPlanPrice(code string, priceStars int64) error
	TogglePlan(code string) error

	CountAudience(filter *entity.AudienceFilter) (int, error)
	AudienceUserIds(filter *entity.AudienceFilter) ([]int64, error)
}

// Service is the application core the bot routes business operations through.
// Implemented by impl/core.Core.
type Service interface {
	RegisterUser(user *entity.User) (string, error)
	UserTenant(tgId int64) (string, error)
	LinkChat(chat *entity.Chat, ownerTgId int64) error
	TenantChats(tenantId string) ([]*entity.Chat, error)
	TenantsPage(search string, limit, offset int) ([]*entity.TenantSummary, error)
	Usage() (*entity.Usage, error)
	IsOwner(tgId int64) bool
	Seen(tgId int64)
	SaveContact(tgId int64, phone string) error
	SaveRegion(tgId int64, region string) (string, error)

	TrackJoin(chatId int64, user *entity.User, inviteLink string, now time.Time) (string, error)
	TrackLeave(chatId, tgId int64, now time.Time) error
	TrackActivity(chatId, tgId int64, now time.Time)

	ResolvePlan(code string, tgId int64) (*entity.Plan, error)
	ActivePlans() ([]*entity.Plan, error)
	SubscriptionStatus(tgId int64) (entity.SubscriptionStatus, *entity.Subscription, error)
	CompletePayment(tgId int64, tenantId, planCode string, amountStars int64, providerPayload interface{}) (*entity.Subscription, error)

	DailyStats(chatId int64, days int) ([]entity.DailyStat, error)
	ActivitySeries(chatId int64, days int) ([]entity.ActivityStat, error)
	WeeklyStats(chatId int64, weeks int) ([]entity.PeriodStat, error)
	MonthlyStats(chatId int64, months int) ([]entity.PeriodStat, error)
	TopCampaigns(chatId int64, limit int) ([]entity.CampaignStat, error)
	DailyReportCSV(chatId int64, days int) ([]byte, error)

	ExpiredUnverified(limit int) ([]*entity.PendingVerification, error)
	ResolvePending(chatId, userId int64) error
	ArchiveBroadcast(run interface{})
}

// TgBot is the central Telegram bot instance.
type TgBot struct {
	log         *slog.Logger
	api         *tgbotapi.Bot
	db          Database
	svc         Service
	updater     *ext.Updater
	broadcaster *Broadcaster
	config      BotConfig

	mu         sync.RWMutex
	selfAdmin  map[int64]bool // chat_id → bot has admin rights; fed by my_chat_member
	ownerState string         // pending compose action: "" | stateBroadcast | stateMassDm
	ownerAud   *entity.AudienceFilter
}

func NewTgBot(apiKey string, db Database, svc Service, log *slog.Logger, cfg BotConfig) (*TgBot, error) {
	if cfg.VerifyTTL == 0 {
		cfg.VerifyTTL = 120 * time.Second
	}
	if cfg.SweepBatch == 0 {
		cfg.SweepBatch = 50
	}
	if cfg.BroadcastChunk == 0 {
		cfg.BroadcastChunk = 30
	}
	if cfg.BroadcastPause == 0 {
		cfg.BroadcastPause = 1200 * time.Millisecond
	}

	tgBot := &TgBot{
		log:       log.With(sl.Module("tgbot")),
		db:        db,
		svc:       svc,
		config:    cfg,
		selfAdmin: make(map[int64]bool),
	}

	api, err := tgbotapi.NewBot(apiKey, nil)
	if err != nil {
		return nil, fmt.Errorf("creating api instance: %v", err)
	}
	tgBot.api = api
	tgBot.broadcaster = NewBroadcaster(tgBot, cfg.BroadcastChunk, cfg.BroadcastPause)

	return tgBot, nil
}

func (t *TgBot) Start() error {
	dispatcher := ext.NewDispatcher(&ext.DispatcherOpts{
		Error: func(b *tgbotapi.Bot, ctx *ext.Context, err error) ext.DispatcherAction {
			t.log.Error("handling update:", sl.Err(err))
			return ext.DispatcherActionNoop
		},
		MaxRoutines: ext.DefaultMaxRoutines,
	})
	t.updater = ext.NewUpdater(dispatcher, nil)

	// User commands
	dispatcher.AddHandler(handlers.NewCommand("start", t.start))
	dispatcher.AddHandler(handlers.NewCommand("help", t.help))
	dispatcher.AddHandler(handlers.NewCommand("status", t.status))
	dispatcher.AddHandler(handlers.NewCommand("plans", t.plans))
	dispatcher.AddHandler(handlers.NewCommand("link", t.link))
	dispatcher.AddHandler(handlers.NewCommand("stats", t.stats))
	dispatcher.AddHandler(handlers.NewCommand("export", t.export))
	dispatcher.AddHandler(handlers.NewCommand("campaign", t.campaignNew))
	dispatcher.AddHandler(handlers.NewCommand("campaigns", t.campaignList))
	dispatcher.AddHandler(handlers.NewCommand("topcampaigns", t.campaignTop))
	dispatcher.AddHandler(handlers.NewCommand("gate", t.gate))
	dispatcher.AddHandler(handlers.NewCommand("region", t.region))

	// Owner commands
	dispatcher.AddHandler(handlers.NewCommand("tenants", t.tenants))
	dispatcher.AddHandler(handlers.NewCommand("usage", t.usage))
	dispatcher.AddHandler(handlers.NewCommand("require", t.require))
	dispatcher.AddHandler(handlers.NewCommand("allplans", t.allPlans))
	dispatcher.AddHandler(handlers.NewCommand("setprice", t.setPrice))
	dispatcher.AddHandler(handlers.NewCommand("toggleplan", t.togglePlan))
	dispatcher.AddHandler(handlers.NewCommand("broadcast", t.broadcast))
	dispatcher.AddHandler(handlers.NewCommand("massdm", t.massDm))
	dispatcher.AddHandler(handlers.NewCommand("cancel", t.cancel))

	// Callback query handlers
	dispatcher.AddHandler(handlers.NewCallback(callbackquery.Prefix(cbBuy), t.onBuyCallback))
	dispatcher.AddHandler(handlers.NewCallback(callbackquery.Prefix(cbVerify), t.onVerifyCallback))
	dispatcher.AddHandler(handlers.NewCallback(callbackquery.Prefix(cbPlanToggle), t.onPlanToggleCallback))

	// Membership updates and payments
	dispatcher.AddHandler(handlers.NewChatMember(nil, t.onChatMember))
	dispatcher.AddHandler(myChatMemberHandler{t})
	dispatcher.AddHandler(handlers.NewPreCheckoutQuery(nil, t.onPreCheckout))
	dispatcher.AddHandler(handlers.NewMessage(func(msg *tgbotapi.Message) bool {
		return msg.SuccessfulPayment != nil
	}, t.onSuccessfulPayment))
	dispatcher.AddHandler(handlers.NewMessage(func(msg *tgbotapi.Message) bool {
		return len(msg.NewChatMembers) > 0 || msg.LeftChatMember != nil
	}, t.onServiceMessage))
	dispatcher.AddHandler(handlers.NewMessage(func(msg *tgbotapi.Message) bool {
		return msg.Contact != nil && msg.Chat.Type == "private"
	}, t.onContact))
	dispatcher.AddHandler(handlers.NewMessage(func(msg *tgbotapi.Message) bool {
		return msg.Text != "" && msg.Chat.Type == "private"
	}, t.onPrivateText))
	dispatcher.AddHandler(handlers.NewMessage(func(msg *tgbotapi.Message) bool {
		return msg.Text != "" && msg.Chat.Type != "private"
	}, t.onGroupText))

	t.setDefaultCommands()
	t.setOwnerCommands()

	err := t.updater.StartPolling(t.api, &ext.PollingOpts{
		DropPendingUpdates: true,
		GetUpdatesOpts: &tgbotapi.GetUpdatesOpts{
			Timeout: 9,
			AllowedUpdates: []string{
				"message", "callback_query",
				"chat_member", "my_chat_member",
				"pre_checkout_query",
			},
			RequestOpts: &tgbotapi.RequestOpts{
				Timeout: time.Second * 10,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to start polling: %w", err)
	}

	t.updater.Idle()
	return nil
}

func (t *TgBot) Stop() {
	if t.broadcaster != nil {
		t.broadcaster.Stop()
	}
	if t.updater != nil {
		t.log.Info("stopping telegram bot")
		t.updater.Stop()
	}
}

// NotifyOwner sends a plain text message to the bot owner's DM.
// Used by the alert slog handler; must never log on failure to avoid loops.
func (t *TgBot) NotifyOwner(msg string) {
	if t.config.OwnerId == 0 || msg == "" {
		return
	}
	for _, part := range splitMessage(msg, maxTelegramMessageLen) {
		_, _ = t.api.SendMessage(t.config.OwnerId, part, nil)
	}
}

// SendTo delivers a plain message to a single user. Used by scheduler jobs.
func (t *TgBot) SendTo(userId int64, text string) {
	t.plainResponse(userId, text)
}

// MemberCount reports the current member count of a chat.
// Passed to the scheduler for channel snapshots.
func (t *TgBot) MemberCount(chatId int64) (int, error) {
	count, err := t.api.GetChatMemberCount(chatId, nil)
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

// myChatMemberHandler routes my_chat_member updates, which track the bot's
// own membership and rights in chats.
type myChatMemberHandler struct {
	t *TgBot
}

func (h myChatMemberHandler) CheckUpdate(_ *tgbotapi.Bot, ctx *ext.Context) bool {
	return ctx.MyChatMember != nil
}

func (h myChatMemberHandler) HandleUpdate(b *tgbotapi.Bot, ctx *ext.Context) error {
	return h.t.onMyChatMember(b, ctx)
}

func (h myChatMemberHandler) Name() string {
	return "mychatmember"
}
