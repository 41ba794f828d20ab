package mqtt

import (
	"container/list"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMatchTopic(t *testing.T) {
	testCases := []struct {
		topic   string
		pattern string
		match   bool
	}{
		{"dev/cmd", "dev/cmd", true},
		{"dev/cmd", "dev/reply", false},
		{"dev/cmd", "+/cmd", true},
		{"dev/cmd", "+/+", true},
		{"dev/cmd", "+", false},
		{"dev/cmd/x", "+/cmd", false},
		{"dev", "dev/+", false},
		{"dev/cmd", "#", true},
		{"dev/cmd", "dev/#", true},
		{"dev", "dev/#", true},
		{"other/cmd", "dev/#", false},
		{"dev/state", "+/state", true},
	}
	for _, tc := range testCases {
		require.Equalf(t, tc.match, MatchTopic(tc.topic, tc.pattern), "%q ~ %q", tc.topic, tc.pattern)
	}
}

func TestClientOptionsFromURL(t *testing.T) {
	testCases := []struct {
		url      string
		broker   string
		prefix   string
		user     string
		password string
		clientID string
	}{
		{
			url:    "mqtt://localhost:1883/led/",
			broker: "tcp://localhost:1883",
			prefix: "led/",
		},
		{
			url:    "mqtts://broker:8883",
			broker: "ssl://broker:8883",
		},
		{
			url:      "ws://u:p@broker:9001/a/b/?client-id=lamp",
			broker:   "ws://broker:9001",
			prefix:   "a/b/",
			user:     "u",
			password: "p",
			clientID: "lamp",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.url, func(t *testing.T) {
			opts, prefix, err := ClientOptionsFromURL(tc.url)
			require.NoError(t, err)
			require.Equal(t, tc.prefix, prefix)
			require.Len(t, opts.Servers, 1)
			require.Equal(t, tc.broker, opts.Servers[0].String())
			require.Equal(t, tc.user, opts.Username)
			require.Equal(t, tc.password, opts.Password)
			require.Equal(t, tc.clientID, opts.ClientID)
		})
	}
}

func TestClientOptionsFromBadURL(t *testing.T) {
	_, _, err := ClientOptionsFromURL("mqtt://[::1")
	require.Error(t, err)
}

func TestQueueDispatch(t *testing.T) {
	q := &Queue{}
	var got []string
	q.subs = map[string]*list.List{}
	q.wildcardSubs = map[string]*list.List{}
	add := func(topic string, wildcard bool) {
		subs := q.subs
		if wildcard {
			subs = q.wildcardSubs
		}
		lst := list.New()
		sub := &Subscription{queue: q, topic: topic, wildcard: wildcard, handler: func(topic string, payload []byte) {
			got = append(got, topic+":"+string(payload))
		}}
		sub.elm = lst.PushBack(sub)
		subs[topic] = lst
	}
	add("dev/cmd", false)
	add("+/cmd", true)
	add("other/#", true)

	q.Dispatch("dev/cmd", []byte("AT"))
	require.Equal(t, []string{"dev/cmd:AT", "dev/cmd:AT"}, got)

	got = nil
	q.Dispatch("dev/state", []byte("x"))
	require.Empty(t, got)
}
