package csvlog

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/go-gotop/okconn/exchange"
)

// NewOrderLog 创建订单CSV日志,按天分文件,文件名 orders_YYYY-MM-DD.csv
func NewOrderLog(dir string) *OrderLog {
	return &OrderLog{
		dir: dir,
	}
}

type OrderLog struct {
	mu      sync.Mutex
	dir     string
	curName string
	file    *os.File
	writer  *csv.Writer
	header  []string
}

func (l *OrderLog) SaveOrderRow(order *exchange.Order) error {
	row := orderFields(order)

	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.rotate(keys); err != nil {
		return err
	}

	record := make([]string, 0, len(l.header))
	for _, k := range l.header {
		record = append(record, row[k])
	}
	if err := l.writer.Write(record); err != nil {
		return err
	}
	l.writer.Flush()
	return l.writer.Error()
}

func (l *OrderLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	l.writer.Flush()
	err := l.file.Close()
	l.file = nil
	l.writer = nil
	l.curName = ""
	return err
}

// rotate 跨天切换文件,新文件先写表头
func (l *OrderLog) rotate(keys []string) error {
	name := "orders_" + time.Now().In(exchange.Loc).Format("2006-01-02") + ".csv"
	if l.file != nil && l.curName == name {
		return nil
	}
	if l.file != nil {
		l.writer.Flush()
		_ = l.file.Close()
	}

	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(l.dir, name)

	_, statErr := os.Stat(path)
	fresh := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	l.file = f
	l.writer = csv.NewWriter(f)
	l.curName = name
	l.header = keys

	if fresh {
		if err := l.writer.Write(keys); err != nil {
			return err
		}
		l.writer.Flush()
		return l.writer.Error()
	}
	return nil
}

func orderFields(o *exchange.Order) map[string]string {
	return map[string]string{
		"ordId":     o.OrderID,
		"clOrdId":   o.ClientOrderID,
		"instId":    o.Symbol,
		"side":      string(o.Side),
		"ordType":   string(o.Type),
		"sz":        o.OrigQty.String(),
		"accFillSz": o.ExecutedQty.String(),
		"fillPx":    o.Price.String(),
		"quoteQty":  o.CumulativeQuoteQty.String(),
		"state":     string(o.Status),
		"fee":       o.Fee.String(),
		"feeCcy":    o.FeeCurrency,
		"sCode":     strconv.Itoa(o.SCode),
		"sMsg":      o.SMsg,
		"cTime":     formatTime(o.CreateTime),
		"uTime":     formatTime(o.UpdateTime),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(exchange.Loc).Format("2006-01-02 15:04:05.000")
}
