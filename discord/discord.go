package discord

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/go-co-op/gocron"
	"github.com/gtuk/discordwebhook"
	log "github.com/sirupsen/logrus"
)

const (
	InfoWebhook int = iota
	ErrorWebhook
)

// Discord rejects content above 2000 characters.
const chunkLimit = 1800

type MessagePayload struct {
	Content     *string `json:"content"`
	WebhookType int     `json:"webhookType"`
	Username    *string `json:"username"`
}

type errorResponse struct {
	Message    string  `json:"message"`
	RetryAfter float64 `json:"retry_after"`
	Global     bool    `json:"global"`
}

// Notifier mirrors log lines to Discord webhooks, batched per webhook type.
type Notifier struct {
	Name         string
	InfoWebhook  string
	ErrorWebhook string
	// send is replaced in tests.
	send func(url string, message discordwebhook.Message) error

	mutex     sync.Mutex
	messages  map[int][]string
	scheduler *gocron.Scheduler
}

func New(name, infoWebhook, errorWebhook string) *Notifier {
	return &Notifier{
		Name:         name,
		InfoWebhook:  infoWebhook,
		ErrorWebhook: errorWebhook,
		send:         discordwebhook.SendMessage,
		messages:     make(map[int][]string),
	}
}

func (n *Notifier) Enabled() bool {
	return n.InfoWebhook != ""
}

func (n *Notifier) Infof(f string, args ...any) {
	n.webhooks(format(f, args...), InfoWebhook)
}

func (n *Notifier) Errorf(f string, args ...any) {
	n.webhooks(format(f, args...), ErrorWebhook, InfoWebhook)
}

func format(f string, args ...any) string {
	s := f
	if len(args) > 0 {
		s = fmt.Sprintf(f, args...)
	}
	return s
}

func (n *Notifier) webhooks(chat string, webhookTypes ...int) {
	hooks := mapset.NewSet(webhookTypes...)
	if hooks.Contains(ErrorWebhook) {
		log.Error(chat)
	} else {
		log.Info(chat)
	}
	if !n.Enabled() {
		return
	}
	n.mutex.Lock()
	defer n.mutex.Unlock()
	for _, webhookType := range webhookTypes {
		n.messages[webhookType] = append(n.messages[webhookType], chat)
	}
}

// chunks joins messages with newlines without letting a chunk grow past chunkLimit.
func chunks(messages []string) []string {
	out := make([]string, 0)
	for _, message := range messages {
		if len(out) == 0 || len(out[len(out)-1])+len(message) > chunkLimit {
			out = append(out, message)
			continue
		}
		out[len(out)-1] = out[len(out)-1] + "\n" + message
	}
	return out
}

// Flush sends everything queued so far.
func (n *Notifier) Flush() {
	n.mutex.Lock()
	current := n.messages
	n.messages = make(map[int][]string)
	n.mutex.Unlock()
	for webhookType, messages := range current {
		for _, chunk := range chunks(messages) {
			n.Send(MessagePayload{Content: &chunk, WebhookType: webhookType, Username: &n.Name})
		}
	}
}

// Start flushes every interval until Stop.
func (n *Notifier) Start(every time.Duration) error {
	n.scheduler = gocron.NewScheduler(time.Now().Location())
	_, err := n.scheduler.SingletonMode().Every(every).Do(n.Flush)
	if err != nil {
		return fmt.Errorf("error scheduling discord service: %w", err)
	}
	n.scheduler.StartAsync()
	return nil
}

func (n *Notifier) Stop() {
	if n.scheduler != nil {
		n.scheduler.Stop()
	}
	n.Flush()
}

func (n *Notifier) Send(payload MessagePayload) {
	url := n.InfoWebhook
	if payload.WebhookType == ErrorWebhook {
		if n.ErrorWebhook == "" {
			return
		}
		url = n.ErrorWebhook
	}
	if url == "" {
		return
	}
	err := n.send(url, discordwebhook.Message{Username: payload.Username, Content: payload.Content})
	if err != nil {
		de := &errorResponse{}
		jsonErr := json.Unmarshal([]byte(err.Error()), de)
		if jsonErr != nil {
			log.Errorf("error sending message to discord: %v", err)
			return
		}
		if de.RetryAfter > 0 {
			time.Sleep(time.Duration(de.RetryAfter * float64(time.Second)))
			n.Send(payload)
		} else {
			log.Errorf("error sending message to discord: %v", err)
		}
	}
}
