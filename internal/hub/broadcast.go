package hub

import (
	"hero-arena/server/internal/net/proto"
)

// Send encodes msg with the player's codec and offers it to their outbound
// buffer. It reports false when the player is gone or the buffer is full.
func (h *Hub) Send(id string, msg any) bool {
	h.mu.Lock()
	p, ok := h.players[id]
	var sender Sender
	if ok {
		sender = p.sender
	}
	h.mu.Unlock()
	if sender == nil {
		return false
	}
	data, err := codecOf(sender).Marshal(msg)
	if err != nil {
		h.logf("[hub] encode %T for %s: %v", msg, id, err)
		return false
	}
	return h.offer(sender, data)
}

// Broadcast implements sim.Broadcaster. The message is encoded at most once
// per codec in use among the recipients.
func (h *Hub) Broadcast(recipients []string, msg any) {
	senders := make([]Sender, 0, len(recipients))
	h.mu.Lock()
	for _, id := range recipients {
		if p, ok := h.players[id]; ok && p.sender != nil {
			senders = append(senders, p.sender)
		}
	}
	h.mu.Unlock()

	encoded := make(map[string][]byte, 2)
	for _, sender := range senders {
		codec := codecOf(sender)
		data, ok := encoded[codec.Name()]
		if !ok {
			var err error
			data, err = codec.Marshal(msg)
			if err != nil {
				h.logf("[hub] encode %T with %s: %v", msg, codec.Name(), err)
				encoded[codec.Name()] = nil
				continue
			}
			encoded[codec.Name()] = data
		}
		if data == nil {
			continue
		}
		h.offer(sender, data)
	}
}

func (h *Hub) offer(sender Sender, data []byte) bool {
	if !sender.Offer(data) {
		h.deps.Counters.RecordDrop()
		return false
	}
	h.deps.Counters.RecordSend(len(data))
	return true
}

func codecOf(sender Sender) proto.Codec {
	if codec := sender.Codec(); codec != nil {
		return codec
	}
	return proto.JSON
}
