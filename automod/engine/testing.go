package engine

import (
	"context"
	"fmt"

	"github.com/isstabb/InstaMod/automod/profile"
	"github.com/isstabb/InstaMod/reddit"
)

// FakeSource is an in-memory ActivitySource for tests and local capture runs.
type FakeSource struct {
	CommentListings map[string][]reddit.CommentItem
	PostListings    map[string][]reddit.PostItem
	UserCommentLogs map[string][]reddit.CommentItem
	UserPostLogs    map[string][]reddit.PostItem
	Users           map[string]*reddit.UserSummary
	Messages        []reddit.Message
	LiveComments    map[string]bool
	WikiPages       map[string]string
	// GoneAnchors simulates a deleted cursor anchor: a since-fetch against a
	// listed id fails with ErrNotFound.
	GoneAnchors map[string]bool

	SummaryFetches int
}

func NewFakeSource() *FakeSource {
	return &FakeSource{
		CommentListings: make(map[string][]reddit.CommentItem),
		PostListings:    make(map[string][]reddit.PostItem),
		UserCommentLogs: make(map[string][]reddit.CommentItem),
		UserPostLogs:    make(map[string][]reddit.PostItem),
		Users:           make(map[string]*reddit.UserSummary),
		LiveComments:    make(map[string]bool),
		WikiPages:       make(map[string]string),
		GoneAnchors:     make(map[string]bool),
	}
}

func newerComments(items []reddit.CommentItem, sinceID string) []reddit.CommentItem {
	if sinceID == "" {
		return items
	}
	var out []reddit.CommentItem
	for _, item := range items {
		if item.ID != sinceID && profile.MaxItemID(item.ID, sinceID) == item.ID {
			out = append(out, item)
		}
	}
	return out
}

func newerPosts(items []reddit.PostItem, sinceID string) []reddit.PostItem {
	if sinceID == "" {
		return items
	}
	var out []reddit.PostItem
	for _, item := range items {
		if item.ID != sinceID && profile.MaxItemID(item.ID, sinceID) == item.ID {
			out = append(out, item)
		}
	}
	return out
}

func (s *FakeSource) CommunityComments(ctx context.Context, community, sinceID string) ([]reddit.CommentItem, error) {
	return newerComments(s.CommentListings[community], sinceID), nil
}

func (s *FakeSource) CommunityPosts(ctx context.Context, community string, limit int) ([]reddit.PostItem, error) {
	items := s.PostListings[community]
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *FakeSource) UserComments(ctx context.Context, user, sinceID string) ([]reddit.CommentItem, error) {
	if sinceID != "" && s.GoneAnchors[sinceID] {
		return nil, reddit.ErrNotFound
	}
	return newerComments(s.UserCommentLogs[user], sinceID), nil
}

func (s *FakeSource) UserPosts(ctx context.Context, user, sinceID string) ([]reddit.PostItem, error) {
	if sinceID != "" && s.GoneAnchors[sinceID] {
		return nil, reddit.ErrNotFound
	}
	return newerPosts(s.UserPostLogs[user], sinceID), nil
}

func (s *FakeSource) UserSummary(ctx context.Context, user string) (*reddit.UserSummary, error) {
	s.SummaryFetches++
	return s.Users[user], nil
}

func (s *FakeSource) CommentExists(ctx context.Context, id string) (bool, error) {
	return s.LiveComments[id], nil
}

func (s *FakeSource) Inbox(ctx context.Context) ([]reddit.Message, error) {
	return s.Messages, nil
}

func (s *FakeSource) WikiPage(ctx context.Context, community, page string) (string, error) {
	content, ok := s.WikiPages[community+"/"+page]
	if !ok {
		return "", reddit.ErrNotFound
	}
	return content, nil
}

// FakeExecutor records every moderation action for assertions.
type FakeExecutor struct {
	Removed       []RemovedItem
	Notifications []Notification
	Badges        []BadgeAssignment
	Replies       []ReplyCall
	Stickied      []string
	ReadMessages  []string
	Name          string
}

type RemovedItem struct {
	ID   string
	Spam bool
}

type Notification struct {
	User    string
	Subject string
	Body    string
}

type BadgeAssignment struct {
	Community string
	User      string
	Text      string
	Style     string
}

type ReplyCall struct {
	ParentID string
	Body     string
}

func (x *FakeExecutor) RemoveContent(ctx context.Context, id string, markAsSpam bool) error {
	x.Removed = append(x.Removed, RemovedItem{ID: id, Spam: markAsSpam})
	return nil
}

func (x *FakeExecutor) NotifyUser(ctx context.Context, user, subject, body string) error {
	x.Notifications = append(x.Notifications, Notification{User: user, Subject: subject, Body: body})
	return nil
}

func (x *FakeExecutor) SetBadge(ctx context.Context, community, user, text, style string) error {
	x.Badges = append(x.Badges, BadgeAssignment{Community: community, User: user, Text: text, Style: style})
	return nil
}

func (x *FakeExecutor) Reply(ctx context.Context, parentID, body string) (string, error) {
	x.Replies = append(x.Replies, ReplyCall{ParentID: parentID, Body: body})
	return fmt.Sprintf("reply%d", len(x.Replies)), nil
}

func (x *FakeExecutor) DistinguishSticky(ctx context.Context, id string) error {
	x.Stickied = append(x.Stickied, id)
	return nil
}

func (x *FakeExecutor) MarkRead(ctx context.Context, messageID string) error {
	x.ReadMessages = append(x.ReadMessages, messageID)
	return nil
}

func (x *FakeExecutor) Me(ctx context.Context) (string, error) {
	return x.Name, nil
}
