package bot

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"todo-list/internal/model"
	"todo-list/internal/service"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageDescription
	stageCategory
	stageEdit
)

const (
	cbTogglePrefix  = "toggle:"
	cbEditPrefix    = "edit:"
	cbRemovePrefix  = "remove:"
	cbConfirmPrefix = "confirm:"
	cbCancelPrefix  = "cancel:"
)

const (
	btnSkip             = "⏭️ Skip"
	btnCancelDialog     = "⏪ Cancel input"
	menuLabelNewTask    = "➕ New task"
	menuLabelTasks      = "📋 Tasks"
	menuLabelCategories = "📂 Categories"
	menuLabelHelp       = "ℹ️ Help"
)

type conversationState struct {
	stage       conversationStage
	description string
	taskID      uint
}

// api is the part of tgbotapi.BotAPI the bot uses.
type api interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot is the Telegram front end for the task list. It answers only its owner.
type Bot struct {
	api         api
	ownerID     int64
	taskSvc     *service.TaskService
	categorySvc *service.CategoryService
	digestSvc   *service.DigestService
	log         *slog.Logger

	mu           sync.Mutex
	conversation *conversationState
}

func New(token string, ownerID int64, taskSvc *service.TaskService, categorySvc *service.CategoryService, digestSvc *service.DigestService, log *slog.Logger) (*Bot, error) {
	botAPI, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Info("bot authorized", "account", botAPI.Self.UserName)
	return newBot(botAPI, ownerID, taskSvc, categorySvc, digestSvc, log), nil
}

func newBot(client api, ownerID int64, taskSvc *service.TaskService, categorySvc *service.CategoryService, digestSvc *service.DigestService, log *slog.Logger) *Bot {
	return &Bot{
		api:         client,
		ownerID:     ownerID,
		taskSvc:     taskSvc,
		categorySvc: categorySvc,
		digestSvc:   digestSvc,
		log:         log,
	}
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	b.log.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				b.log.Error("handle callback", "error", err)
			}
		case update.Message != nil:
			if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				b.log.Error("handle message", "error", err)
			}
		}
	}

	return ctx.Err()
}

// SendDigest sends the open-task summary to the owner.
func (b *Bot) SendDigest(ctx context.Context) error {
	text, err := b.digestSvc.Summary(ctx, time.Now())
	if err != nil {
		b.log.Error("build digest", "error", err)
		return b.sendText(b.ownerID, fmt.Sprintf("Failed to build digest:\n%s", escape(err.Error())))
	}
	return b.sendText(b.ownerID, text)
}

func (b *Bot) isOwner(userID int64) bool {
	return userID == b.ownerID
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}
	if !b.isOwner(msg.From.ID) {
		b.log.Warn("ignoring message from stranger", "user", msg.From.ID)
		return nil
	}

	if !msg.IsCommand() && isCancelDialogInput(msg.Text) {
		b.clearConversation()
		return b.sendText(msg.Chat.ID, "⏪ Input cancelled.")
	}

	if !msg.IsCommand() {
		if handled, err := b.handleMenuAlias(ctx, msg); handled {
			return err
		}
	}

	if msg.IsCommand() {
		b.log.Info("command", "name", msg.Command(), "args", msg.CommandArguments())
		return b.handleCommand(ctx, msg)
	}

	if b.hasConversation() {
		return b.handleConversation(ctx, msg)
	}

	return b.sendText(msg.Chat.ID, "I did not get that. Send /add to create a task or /help for the command list.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	args := strings.TrimSpace(msg.CommandArguments())
	switch msg.Command() {
	case "start", "help":
		return b.handleHelp(msg.Chat.ID)
	case "tasks":
		return b.handleListTasks(ctx, msg.Chat.ID)
	case "add":
		return b.startAddConversation(msg.Chat.ID, args)
	case "done":
		return b.handleToggleCommand(ctx, msg.Chat.ID, args)
	case "edit":
		return b.handleEditCommand(ctx, msg.Chat.ID, args)
	case "remove":
		return b.handleRemoveCommand(msg.Chat.ID, args)
	case "categories":
		return b.handleCategories(ctx, msg.Chat.ID)
	case "digest":
		return b.SendDigest(ctx)
	case "cancel":
		b.clearConversation()
		return b.sendText(msg.Chat.ID, "⏪ Input cancelled.")
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. See /help.")
	}
}

func (b *Bot) handleHelp(chatID int64) error {
	text := "ℹ️ <b>To-Do List</b>\n" +
		"• /tasks — show all tasks\n" +
		"• /add &lt;text&gt; — add a task, then pick a category\n" +
		"• /done &lt;id&gt; — mark a task done or not done\n" +
		"• /edit &lt;id&gt; &lt;text&gt; — change a task description\n" +
		"• /remove &lt;id&gt; — delete a task\n" +
		"• /categories — list categories\n" +
		"• /digest — summary of open tasks\n" +
		"• /cancel — cancel current input"
	return b.sendText(chatID, text)
}

func (b *Bot) handleListTasks(ctx context.Context, chatID int64) error {
	if err := b.taskSvc.Refresh(ctx); err != nil {
		return b.sendText(chatID, fmt.Sprintf("Failed to load tasks:\n%s", escape(err.Error())))
	}
	return b.sendTaskList(chatID)
}

func (b *Bot) startAddConversation(chatID int64, description string) error {
	if description == "" {
		b.setConversation(&conversationState{stage: stageDescription})
		return b.sendWithReplyMarkup(chatID, "🆕 New task. What needs doing?", cancelKeyboard())
	}
	b.setConversation(&conversationState{stage: stageCategory, description: description})
	return b.sendWithReplyMarkup(chatID, "🏷 Pick a category or send your own.", b.categoryKeyboard())
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message) error {
	state := b.getConversation()
	if state == nil {
		return nil
	}

	text := strings.TrimSpace(msg.Text)
	switch state.stage {
	case stageDescription:
		if text == "" {
			return b.sendWithReplyMarkup(msg.Chat.ID, "The description can't be empty. What needs doing?", cancelKeyboard())
		}
		b.setConversation(&conversationState{stage: stageCategory, description: text})
		return b.sendWithReplyMarkup(msg.Chat.ID, "🏷 Pick a category or send your own.", b.categoryKeyboard())
	case stageCategory:
		category := text
		if isSkipInput(text) {
			category = ""
		}
		b.clearConversation()
		return b.finishAdd(ctx, msg.Chat.ID, state.description, category)
	case stageEdit:
		b.clearConversation()
		return b.editTask(ctx, msg.Chat.ID, state.taskID, text)
	default:
		b.clearConversation()
		return b.sendText(msg.Chat.ID, "Input reset. Try again with /add.")
	}
}

func (b *Bot) finishAdd(ctx context.Context, chatID int64, description, category string) error {
	if err := b.taskSvc.AddTask(ctx, description, category); err != nil {
		return b.sendText(chatID, fmt.Sprintf("Failed to add task:\n%s", escape(err.Error())))
	}
	return b.sendTaskList(chatID)
}

func (b *Bot) handleToggleCommand(ctx context.Context, chatID int64, args string) error {
	taskID, err := parseCommandID(args)
	if err != nil {
		return b.sendText(chatID, "Give the task id: /done 12")
	}
	return b.toggleTask(ctx, chatID, taskID)
}

func (b *Bot) handleEditCommand(ctx context.Context, chatID int64, args string) error {
	idPart, rest, _ := strings.Cut(args, " ")
	taskID, err := parseCommandID(idPart)
	if err != nil {
		return b.sendText(chatID, "Give the task id: /edit 12 new text")
	}
	if strings.TrimSpace(rest) == "" {
		return b.askEdit(chatID, taskID)
	}
	return b.editTask(ctx, chatID, taskID, rest)
}

func (b *Bot) handleRemoveCommand(chatID int64, args string) error {
	taskID, err := parseCommandID(args)
	if err != nil {
		return b.sendText(chatID, "Give the task id: /remove 12")
	}
	return b.askRemoveConfirmation(chatID, taskID)
}

func (b *Bot) handleCategories(ctx context.Context, chatID int64) error {
	categories, err := b.categorySvc.List(ctx)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Failed to load categories:\n%s", escape(err.Error())))
	}
	var builder strings.Builder
	builder.WriteString("📂 <b>Categories</b>\n")
	for _, name := range categories {
		builder.WriteString(fmt.Sprintf("• %s\n", escape(name)))
	}
	return b.sendText(chatID, strings.TrimSpace(builder.String()))
}

func (b *Bot) toggleTask(ctx context.Context, chatID int64, taskID uint) error {
	task, ok := b.taskSvc.Find(taskID)
	if !ok {
		return b.sendText(chatID, fmt.Sprintf("Task #%d not found.", taskID))
	}
	if err := b.taskSvc.ToggleDone(ctx, &task); err != nil {
		return b.sendText(chatID, fmt.Sprintf("Failed to update task:\n%s", escape(err.Error())))
	}
	return b.sendTaskList(chatID)
}

func (b *Bot) askEdit(chatID int64, taskID uint) error {
	task, ok := b.taskSvc.Find(taskID)
	if !ok {
		return b.sendText(chatID, fmt.Sprintf("Task #%d not found.", taskID))
	}
	b.setConversation(&conversationState{stage: stageEdit, taskID: task.ID})
	text := fmt.Sprintf("✏️ New description for #%d?\nCurrent: %s", task.ID, escape(task.Description))
	return b.sendWithReplyMarkup(chatID, text, cancelKeyboard())
}

func (b *Bot) editTask(ctx context.Context, chatID int64, taskID uint, description string) error {
	task, ok := b.taskSvc.Find(taskID)
	if !ok {
		return b.sendText(chatID, fmt.Sprintf("Task #%d not found.", taskID))
	}
	if err := b.taskSvc.EditDescription(ctx, &task, description); err != nil {
		return b.sendText(chatID, fmt.Sprintf("Failed to edit task:\n%s", escape(err.Error())))
	}
	return b.sendTaskList(chatID)
}

func (b *Bot) askRemoveConfirmation(chatID int64, taskID uint) error {
	task, ok := b.taskSvc.Find(taskID)
	if !ok {
		return b.sendText(chatID, fmt.Sprintf("Task #%d not found.", taskID))
	}
	text := fmt.Sprintf("Remove task «%s» (#%d)?", escape(task.Description), task.ID)
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = confirmKeyboard(task.ID)
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) removeTask(ctx context.Context, chatID int64, taskID uint) error {
	task, ok := b.taskSvc.Find(taskID)
	if !ok {
		return b.sendText(chatID, fmt.Sprintf("Task #%d not found.", taskID))
	}
	if err := b.taskSvc.RemoveTask(ctx, task); err != nil {
		return b.sendText(chatID, fmt.Sprintf("Failed to remove task:\n%s", escape(err.Error())))
	}
	return b.sendTaskList(chatID)
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.log.Warn("callback ack", "error", err)
	}
	if !b.isOwner(cb.From.ID) {
		b.log.Warn("ignoring callback from stranger", "user", cb.From.ID)
		return nil
	}

	chatID := cb.Message.Chat.ID
	data := cb.Data
	b.log.Info("callback", "data", data)

	switch {
	case strings.HasPrefix(data, cbTogglePrefix):
		taskID, err := parseTaskID(data, cbTogglePrefix)
		if err != nil {
			return nil
		}
		return b.toggleTask(ctx, chatID, taskID)
	case strings.HasPrefix(data, cbEditPrefix):
		taskID, err := parseTaskID(data, cbEditPrefix)
		if err != nil {
			return nil
		}
		return b.askEdit(chatID, taskID)
	case strings.HasPrefix(data, cbRemovePrefix):
		taskID, err := parseTaskID(data, cbRemovePrefix)
		if err != nil {
			return nil
		}
		return b.askRemoveConfirmation(chatID, taskID)
	case strings.HasPrefix(data, cbConfirmPrefix):
		taskID, err := parseTaskID(data, cbConfirmPrefix)
		if err != nil {
			return nil
		}
		return b.removeTask(ctx, chatID, taskID)
	case strings.HasPrefix(data, cbCancelPrefix):
		return b.sendText(chatID, "Kept it.")
	default:
		return nil
	}
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	switch strings.TrimSpace(msg.Text) {
	case menuLabelNewTask:
		return true, b.startAddConversation(msg.Chat.ID, "")
	case menuLabelTasks:
		return true, b.handleListTasks(ctx, msg.Chat.ID)
	case menuLabelCategories:
		return true, b.handleCategories(ctx, msg.Chat.ID)
	case menuLabelHelp:
		return true, b.handleHelp(msg.Chat.ID)
	default:
		return false, nil
	}
}

func (b *Bot) sendTaskList(chatID int64) error {
	text, markup, ok := renderTaskList(b.taskSvc.Tasks())
	if !ok {
		return b.sendText(chatID, text)
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

// renderTaskList lays the tasks out in mirror order with one button row per
// task. ok is false when there is nothing to show.
func renderTaskList(tasks []model.Task) (string, tgbotapi.InlineKeyboardMarkup, bool) {
	if len(tasks) == 0 {
		return "No tasks yet. Add one with /add.", tgbotapi.InlineKeyboardMarkup{}, false
	}

	var builder strings.Builder
	builder.WriteString("📋 <b>Tasks</b>\n\n")

	buttons := make([][]tgbotapi.InlineKeyboardButton, 0, len(tasks))
	for _, task := range tasks {
		builder.WriteString(formatTask(task))

		toggleLabel := fmt.Sprintf("✅ #%d · %s", task.ID, shortTitle(task.Description, 20))
		if task.Done {
			toggleLabel = fmt.Sprintf("↩️ #%d · %s", task.ID, shortTitle(task.Description, 20))
		}
		buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(toggleLabel, fmt.Sprintf("%s%d", cbTogglePrefix, task.ID)),
			tgbotapi.NewInlineKeyboardButtonData("✏️", fmt.Sprintf("%s%d", cbEditPrefix, task.ID)),
			tgbotapi.NewInlineKeyboardButtonData("🗑", fmt.Sprintf("%s%d", cbRemovePrefix, task.ID)),
		))
	}

	return strings.TrimSpace(builder.String()), tgbotapi.NewInlineKeyboardMarkup(buttons...), true
}

func formatTask(task model.Task) string {
	box := "⬜"
	description := escape(task.Description)
	if task.Done {
		box = "✅"
		description = "<s>" + description + "</s>"
	}
	return fmt.Sprintf("%s <b>#%d</b> %s <i>[%s]</i>\n", box, task.ID, description, escape(task.Category))
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) setConversation(state *conversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversation = state
}

func (b *Bot) getConversation() *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversation
}

func (b *Bot) hasConversation() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversation != nil && b.conversation.stage != stageNone
}

func (b *Bot) clearConversation() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversation = nil
}

func parseTaskID(data, prefix string) (uint, error) {
	return parseCommandID(strings.TrimPrefix(data, prefix))
}

func parseCommandID(raw string) (uint, error) {
	raw = strings.TrimPrefix(strings.TrimSpace(raw), "#")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	if id == 0 {
		return 0, fmt.Errorf("task id must be positive")
	}
	return uint(id), nil
}

func shortTitle(title string, maxLen int) string {
	title = strings.TrimSpace(title)
	if utf8.RuneCountInString(title) <= maxLen {
		return title
	}
	runes := []rune(title)
	return string(runes[:maxLen-1]) + "…"
}

func (b *Bot) categoryKeyboard() tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	var row []tgbotapi.KeyboardButton
	for _, name := range b.categorySvc.Suggested() {
		row = append(row, tgbotapi.NewKeyboardButton(name))
		if len(row) == 3 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton(btnSkip),
		tgbotapi.NewKeyboardButton(btnCancelDialog),
	))
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func confirmKeyboard(taskID uint) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑 Remove", fmt.Sprintf("%s%d", cbConfirmPrefix, taskID)),
			tgbotapi.NewInlineKeyboardButtonData("↩️ Keep", fmt.Sprintf("%s%d", cbCancelPrefix, taskID)),
		),
	)
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelNewTask),
			tgbotapi.NewKeyboardButton(menuLabelTasks),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelCategories),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = false
	return kb
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func isSkipInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == "-" || value == strings.ToLower(btnSkip) || value == "skip"
}

func isCancelDialogInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancelDialog) || value == "cancel"
}

func escape(s string) string {
	return html.EscapeString(s)
}
