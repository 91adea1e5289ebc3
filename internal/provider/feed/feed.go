package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/quantegy/tradepulse/internal/domain"
)

// Config tunes the websocket market feed.
type Config struct {
	URL            string
	ReconnectDelay time.Duration
	PingInterval   time.Duration
	MaxCandles     int
}

// Feed maintains a websocket kline subscription and keeps a rolling window
// of closed candles plus the latest best bid/ask per symbol.
type Feed struct {
	config Config

	mu      sync.RWMutex
	conn    *websocket.Conn
	candles map[string][]domain.Candle
	books   map[string]BookTop
}

// BookTop is the best bid and ask seen on the stream.
type BookTop struct {
	BidPrice float64
	BidQty   float64
	AskPrice float64
	AskQty   float64
	Seen     time.Time
}

type klineMessage struct {
	Stream string `json:"stream"`
	Data   struct {
		Symbol string `json:"s"`
		Kline  struct {
			OpenTime int64  `json:"t"`
			Open     string `json:"o"`
			High     string `json:"h"`
			Low      string `json:"l"`
			Close    string `json:"c"`
			Volume   string `json:"v"`
			Final    bool   `json:"x"`
		} `json:"k"`
	} `json:"data"`
}

type bookTickerMessage struct {
	Stream string `json:"stream"`
	Data   struct {
		Symbol   string `json:"s"`
		BidPrice string `json:"b"`
		BidQty   string `json:"B"`
		AskPrice string `json:"a"`
		AskQty   string `json:"A"`
	} `json:"data"`
}

// New creates a feed for the given symbols.
func New(config Config) *Feed {
	if config.MaxCandles == 0 {
		config.MaxCandles = 500
	}
	return &Feed{
		config:  config,
		candles: make(map[string][]domain.Candle),
		books:   make(map[string]BookTop),
	}
}

// Run connects and consumes until ctx is cancelled, reconnecting on errors.
func (f *Feed) Run(ctx context.Context, symbols []string, timeframe string) error {
	for {
		if err := f.connectAndConsume(ctx, symbols, timeframe); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warn().Err(err).Dur("retry_in", f.config.ReconnectDelay).Msg("feed disconnected")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(f.config.ReconnectDelay):
		}
	}
}

func (f *Feed) connectAndConsume(ctx context.Context, symbols []string, timeframe string) error {
	url := f.config.URL + "/stream?streams=" + streamPath(symbols, timeframe)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", url, err)
	}
	defer conn.Close()

	f.mu.Lock()
	f.conn = conn
	f.mu.Unlock()

	log.Info().Str("url", f.config.URL).Strs("symbols", symbols).Msg("feed connected")

	go f.pingLoop(ctx, conn)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		conn.SetReadDeadline(time.Now().Add(f.config.PingInterval * 2))
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		f.handleMessage(data)
	}
}

func (f *Feed) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(f.config.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deadline := time.Now().Add(5 * time.Second)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}

func (f *Feed) handleMessage(data []byte) {
	var envelope struct {
		Stream string `json:"stream"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return
	}
	switch {
	case strings.Contains(envelope.Stream, "@kline"):
		f.handleKline(data)
	case strings.Contains(envelope.Stream, "@bookTicker"):
		f.handleBookTicker(data)
	}
}

func (f *Feed) handleKline(data []byte) {
	var msg klineMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Debug().Err(err).Msg("bad kline message")
		return
	}
	k := msg.Data.Kline
	if !k.Final {
		return
	}
	candle := domain.Candle{
		OpenTime: time.UnixMilli(k.OpenTime),
		Open:     parseFloat(k.Open),
		High:     parseFloat(k.High),
		Low:      parseFloat(k.Low),
		Close:    parseFloat(k.Close),
		Volume:   parseFloat(k.Volume),
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	symbol := msg.Data.Symbol
	window := append(f.candles[symbol], candle)
	if len(window) > f.config.MaxCandles {
		window = window[len(window)-f.config.MaxCandles:]
	}
	f.candles[symbol] = window
}

func (f *Feed) handleBookTicker(data []byte) {
	var msg bookTickerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.books[msg.Data.Symbol] = BookTop{
		BidPrice: parseFloat(msg.Data.BidPrice),
		BidQty:   parseFloat(msg.Data.BidQty),
		AskPrice: parseFloat(msg.Data.AskPrice),
		AskQty:   parseFloat(msg.Data.AskQty),
		Seen:     time.Now(),
	}
}

// Candles returns a copy of the rolling window for symbol, oldest first.
func (f *Feed) Candles(symbol string) []domain.Candle {
	f.mu.RLock()
	defer f.mu.RUnlock()
	window := f.candles[symbol]
	out := make([]domain.Candle, len(window))
	copy(out, window)
	return out
}

// Book returns the latest best bid/ask sizes for symbol.
func (f *Feed) Book(symbol string) (BookTop, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	top, ok := f.books[symbol]
	return top, ok
}

// LastCandleTime returns the open time of the newest closed candle.
func (f *Feed) LastCandleTime(symbol string) (time.Time, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	window := f.candles[symbol]
	if len(window) == 0 {
		return time.Time{}, false
	}
	return window[len(window)-1].OpenTime, true
}

func streamPath(symbols []string, timeframe string) string {
	parts := make([]string, 0, len(symbols)*2)
	for _, s := range symbols {
		lower := strings.ToLower(s)
		parts = append(parts, lower+"@kline_"+timeframe, lower+"@bookTicker")
	}
	return strings.Join(parts, "/")
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
