package queue

import (
	"net/url"
	"sort"
)

type PublisherInfo struct {
	Reference string `json:"reference"`
	URL       string `json:"url"`
	Initiated bool   `json:"initiated"`
}

type SubscriberInfo struct {
	Reference    string          `json:"reference"`
	URL          string          `json:"url"`
	State        SubscriberState `json:"state"`
	Initiated    bool            `json:"initiated"`
	MessageCount int64           `json:"message_count"`
	ErrorCount   int64           `json:"error_count"`
}

// Inspector lists what a Manager currently holds.
type Inspector interface {
	ListPublishers() []PublisherInfo
	ListSubscribers() []SubscriberInfo
}

var _ Inspector = (*queue)(nil)

func (s *queue) ListPublishers() []PublisherInfo {
	var infos []PublisherInfo
	s.publishQueueMap.Range(func(_, value any) bool {
		pub, ok := value.(*publisher)
		if !ok {
			return true
		}
		infos = append(infos, PublisherInfo{
			Reference: pub.Ref(),
			URL:       redactURL(pub.url),
			Initiated: pub.Initiated(),
		})
		return true
	})
	sort.Slice(infos, func(i, j int) bool { return infos[i].Reference < infos[j].Reference })
	return infos
}

func (s *queue) ListSubscribers() []SubscriberInfo {
	var infos []SubscriberInfo
	s.subscriptionQueueMap.Range(func(_, value any) bool {
		sub, ok := value.(Subscriber)
		if !ok {
			return true
		}
		metrics := sub.Metrics()
		infos = append(infos, SubscriberInfo{
			Reference:    sub.Ref(),
			URL:          redactURL(sub.URI()),
			State:        sub.State(),
			Initiated:    sub.Initiated(),
			MessageCount: metrics.MessageCount(),
			ErrorCount:   metrics.ErrorCount(),
		})
		return true
	})
	sort.Slice(infos, func(i, j int) bool { return infos[i].Reference < infos[j].Reference })
	return infos
}

// redactURL hides broker credentials.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Redacted()
}
