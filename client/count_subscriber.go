package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// CountSubscriber 未读数的混合 push+poll 订阅者。
// 周期性轮询拉取权威未读数，推送事件在两次轮询之间做乐观 +1。
// 两个来源可能短暂不一致，下一次轮询结果总是覆盖乐观值。
// 每个订阅者的定时器独立调度，重叠的轮询请求不做合并。
type CountSubscriber struct {
	baseURL  string
	endpoint string
	token    string
	interval time.Duration
	client   *http.Client

	mu     sync.Mutex
	unread int64

	stop     chan struct{}
	stopOnce sync.Once
}

// NewNotificationSubscriber 订阅未读通知数
func NewNotificationSubscriber(baseURL, token string, interval time.Duration) *CountSubscriber {
	return newCountSubscriber(baseURL, "/api/notifications/unread/count", token, interval)
}

// NewMessageSubscriber 订阅未读消息数
func NewMessageSubscriber(baseURL, token string, interval time.Duration) *CountSubscriber {
	return newCountSubscriber(baseURL, "/api/messages/unread/count", token, interval)
}

func newCountSubscriber(baseURL, endpoint, token string, interval time.Duration) *CountSubscriber {
	return &CountSubscriber{
		baseURL:  baseURL,
		endpoint: endpoint,
		token:    token,
		interval: interval,
		client:   &http.Client{Timeout: 10 * time.Second},
		stop:     make(chan struct{}),
	}
}

// Start 先立刻拉一次，然后按固定间隔轮询
func (s *CountSubscriber) Start() {
	go func() {
		s.poll()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.poll()
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop 停止轮询
func (s *CountSubscriber) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// Unread 当前未读数
func (s *CountSubscriber) Unread() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread
}

// Bump 收到一条推送事件时的乐观递增
func (s *CountSubscriber) Bump() {
	s.mu.Lock()
	s.unread++
	s.mu.Unlock()
}

func (s *CountSubscriber) poll() {
	req, err := http.NewRequest(http.MethodGet, s.baseURL+s.endpoint, nil)
	if err != nil {
		logrus.WithError(err).Debug("Failed to build poll request")
		return
	}
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		logrus.WithError(err).Debug("Unread poll failed")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logrus.WithField("status", resp.StatusCode).Debug("Unread poll rejected")
		return
	}

	var body struct {
		Data struct {
			Count int64 `json:"count"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		logrus.WithError(err).Debug(fmt.Sprintf("Invalid poll response from %s", s.endpoint))
		return
	}

	// 轮询结果是权威的，覆盖中间的乐观递增
	s.mu.Lock()
	s.unread = body.Data.Count
	s.mu.Unlock()
}
