package commands_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/polytracker/internal/application/commands"
	"github.com/alejandrodnm/polytracker/internal/application/watchlist"
	"github.com/alejandrodnm/polytracker/internal/domain"
)

const addr = "0x8f0a2abc5d7e3f1b9c4d6e8f0a1b2c3d4e5f6a7b"

type memStorage struct {
	failErr error
}

func (m *memStorage) LoadWatchlist(context.Context) ([]domain.WalletEntry, error) { return nil, nil }
func (m *memStorage) SaveWallet(context.Context, domain.WalletEntry) error         { return m.failErr }
func (m *memStorage) DeleteWallet(context.Context, string) error                    { return m.failErr }
func (m *memStorage) Close() error                                                  { return nil }

func newProcessor(t *testing.T) (*commands.Processor, *watchlist.Store, *memStorage) {
	t.Helper()
	persist := &memStorage{}
	store, err := watchlist.Open(context.Background(), persist)
	require.NoError(t, err)
	return commands.NewProcessor(store, 30), store, persist
}

func run(t *testing.T, p *commands.Processor, text string) commands.Result {
	t.Helper()
	cmd, ok := commands.Parse(text)
	require.True(t, ok, "not a command: %q", text)
	res := p.Handle(context.Background(), cmd)
	require.NotEmpty(t, res.Reply)
	return res
}

func TestParse(t *testing.T) {
	cases := []struct {
		text string
		kind commands.Kind
		args []string
	}{
		{"/add 0xabc Trump Whale", commands.KindAdd, []string{"0xabc", "Trump", "Whale"}},
		{"/add@PolyTrackerBot 0xabc w", commands.KindAdd, []string{"0xabc", "w"}},
		{"  /LIST  ", commands.KindList, []string{}},
		{"/remove whale1", commands.KindRemove, []string{"whale1"}},
		{"/start", commands.KindStart, []string{}},
		{"/help", commands.KindHelp, []string{}},
		{"/buy now", commands.KindUnknown, []string{"now"}},
	}
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			cmd, ok := commands.Parse(tc.text)
			require.True(t, ok)
			assert.Equal(t, tc.kind, cmd.Kind)
			assert.Equal(t, tc.args, cmd.Args)
		})
	}

	_, ok := commands.Parse("hello there")
	assert.False(t, ok)
	_, ok = commands.Parse("")
	assert.False(t, ok)
}

func TestProcessor_AddAndList(t *testing.T) {
	p, store, _ := newProcessor(t)

	res := run(t, p, "/add "+addr+" Trump Whale")
	require.NoError(t, res.Err)
	require.NotNil(t, res.Entry)
	assert.Equal(t, "Trump Whale", res.Entry.DisplayName)
	assert.Contains(t, res.Reply, "Added *Trump Whale*")

	// /add no fija baseline: el primer poll lo hace
	e, ok := store.Get("trump whale")
	require.True(t, ok)
	assert.Nil(t, e.LastSnapshot)

	res = run(t, p, "/list")
	require.Len(t, res.Entries, 1)
	assert.Contains(t, res.Reply, "[Trump Whale](https://polymarket.com/profile/"+addr+")")
	assert.Contains(t, res.Reply, "waiting for first poll")
}

func TestProcessor_AddDuplicate(t *testing.T) {
	p, store, _ := newProcessor(t)
	require.NoError(t, run(t, p, "/add "+addr+" whale1").Err)

	res := run(t, p, "/add "+addr+" WHALE1")
	assert.ErrorIs(t, res.Err, domain.ErrDuplicateName)
	assert.Contains(t, res.Reply, "already tracked")
	assert.Equal(t, 1, store.Len())
}

func TestProcessor_AddErrors(t *testing.T) {
	p, _, persist := newProcessor(t)

	res := run(t, p, "/add "+addr)
	assert.True(t, commands.IsUsage(res.Err))
	assert.Contains(t, res.Reply, "Usage")

	res = run(t, p, "/add 0x123 shorty")
	assert.ErrorIs(t, res.Err, domain.ErrInvalidAddress)
	assert.Contains(t, res.Reply, "Invalid wallet address")

	persist.failErr = errors.New("disk full")
	res = run(t, p, "/add "+addr+" whale1")
	var pe *domain.PersistenceError
	assert.ErrorAs(t, res.Err, &pe)
	assert.Contains(t, res.Reply, "Could not save")
}

func TestProcessor_RemoveByNameOrAddress(t *testing.T) {
	p, store, _ := newProcessor(t)
	require.NoError(t, run(t, p, "/add "+addr+" Whale One").Err)
	require.NoError(t, run(t, p, "/add 0x1111111111111111111111111111111111111111 other").Err)

	res := run(t, p, "/remove whale one")
	require.NoError(t, res.Err)
	assert.Contains(t, res.Reply, "Removed *Whale One*")

	res = run(t, p, "/remove 0x1111111111111111111111111111111111111111")
	require.NoError(t, res.Err)
	assert.Equal(t, "other", res.Entry.DisplayName)
	assert.Equal(t, 0, store.Len())

	res = run(t, p, "/remove ghost")
	assert.ErrorIs(t, res.Err, domain.ErrNotFound)
	assert.Contains(t, res.Reply, "Could not find wallet matching 'ghost'")

	res = run(t, p, "/remove")
	assert.True(t, commands.IsUsage(res.Err))
}

func TestProcessor_RemoveNameWinsOverAddress(t *testing.T) {
	p, store, _ := newProcessor(t)
	// un nombre que parece dirección
	name := "0x2222222222222222222222222222222222222222"
	require.NoError(t, run(t, p, "/add "+addr+" "+name).Err)
	require.NoError(t, run(t, p, "/add "+name+" real").Err)

	res := run(t, p, "/remove "+name)
	require.NoError(t, res.Err)
	assert.Equal(t, name, res.Entry.DisplayName)
	_, ok := store.Get("real")
	assert.True(t, ok)
}

func TestProcessor_StartHelpUnknown(t *testing.T) {
	p, _, _ := newProcessor(t)

	assert.Contains(t, run(t, p, "/start").Reply, "PolyTracker Ready")
	help := run(t, p, "/help").Reply
	assert.Contains(t, help, "every 30 seconds")
	assert.Contains(t, help, "/remove")
	assert.Contains(t, run(t, p, "/buy").Reply, "Unknown command")
}

func TestFormatList_WithSnapshot(t *testing.T) {
	snap := domain.NewSnapshot(time.Now(), []domain.Position{{
		Key:    domain.OutcomeKey{MarketID: "m", OutcomeID: "o"},
		Shares: decimal.NewFromInt(3),
	}})
	msg := commands.FormatList([]domain.WalletEntry{{DisplayName: "Trump_Whale", Address: addr, LastSnapshot: &snap}})
	assert.Contains(t, msg, "[Trump Whale]")
	assert.Contains(t, msg, "1 positions")
	assert.Contains(t, msg, domain.ShortAddress(addr))

	assert.Contains(t, commands.FormatList(nil), "No wallets")
}
