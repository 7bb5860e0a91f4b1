package messenger

import (
	"context"
	"fmt"
	"sort"

	"github.com/talentmatch/messaging-service/internal/model"
)

// directory holds the conversation list. Reloads may complete out of order;
// a result is applied only if no later-started reload was applied before it.
type directory struct {
	started       uint64
	applied       uint64
	conversations model.ConversationPreviewList
}

func (d *directory) begin() uint64 {
	d.started++
	return d.started
}

func (d *directory) apply(gen uint64, conversations model.ConversationPreviewList) bool {
	if gen < d.applied {
		return false
	}
	d.applied = gen
	d.conversations = conversations
	return true
}

func (d *directory) companionOf(conversationID, identity string) (string, bool) {
	c, ok := d.conversations.Find(conversationID)
	if !ok {
		return "", false
	}
	return c.CompanionID(identity), true
}

// loadConversations reads the directory of identity and attaches the other
// participant's profile to every row. A failed profile lookup degrades to
// bare ids.
func loadConversations(ctx context.Context, store Store, profiles ProfileLookup, logger Logger, identity string) (model.ConversationPreviewList, error) {
	conversations, err := store.GetConversations(ctx, identity)
	if err != nil {
		return nil, storeError("load conversations", err)
	}

	ids := make([]string, 0, len(conversations))
	seen := make(map[string]struct{}, len(conversations))
	for _, c := range conversations {
		id := c.CompanionID(identity)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	var found map[string]model.Profile
	if profiles != nil && len(ids) > 0 {
		found, err = profiles.GetProfiles(ctx, ids)
		if err != nil {
			logger.Warn(fmt.Sprintf("failed to resolve conversation profiles: %v", err))
		}
	}

	out := make(model.ConversationPreviewList, len(conversations))
	for i, c := range conversations {
		id := c.CompanionID(identity)
		profile, ok := found[id]
		if !ok {
			profile = model.Profile{ID: id}
		}
		c.Companion = profile
		out[i] = c
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})

	return out, nil
}
