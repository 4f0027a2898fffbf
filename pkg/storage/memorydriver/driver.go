package memorydriver

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// orderRecord keeps the raw persisted representation of an accepted booking.
type orderRecord struct {
	ID               int64  `json:"id"`
	Reference        string `json:"reference"`
	Kind             string `json:"kind"`
	ItemID           string `json:"item_id"`
	ItemName         string `json:"item_name"`
	UnitPriceCents   int64  `json:"unit_price_cents"`
	Quantity         int64  `json:"quantity"`
	DeliveryMethod   string `json:"delivery_method"`
	DeliveryFeeCents int64  `json:"delivery_fee_cents"`
	TotalCents       int64  `json:"total_cents"`
	AppointmentDate  string `json:"appointment_date"`
	AppointmentSlot  string `json:"appointment_slot"`
	Name             string `json:"name"`
	Phone            string `json:"phone"`
	Email            string `json:"email"`
	Address          string `json:"address"`
	Notes            string `json:"notes"`
	CreatedAt        string `json:"created_at"`
}

// catalogRecord is one bookable service or orderable product.
type catalogRecord struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	Name        string `json:"name"`
	PriceCents  int64  `json:"price_cents"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	Duration    string `json:"duration"`
	Position    int64  `json:"position"`
}

// snapshot is written to disk after each mutation so the driver survives restarts.
type snapshot struct {
	Orders       []orderRecord   `json:"orders"`
	Catalog      []catalogRecord `json:"catalog"`
	OrderCounter int64           `json:"order_counter"`
}

type action string

const (
	actionInsertOrder   action = "insertOrder"
	actionListOrders    action = "listOrders"
	actionInsertCatalog action = "insertCatalog"
	actionListCatalog   action = "listCatalog"
	actionUpdateCatalog action = "updateCatalog"
	actionDeleteCatalog action = "deleteCatalog"
	actionNoop          action = "noop"
)

// storeCommand models every operation executed against the in-memory store.
type storeCommand struct {
	action  action
	order   orderRecord
	catalog catalogRecord
	key     string
	reply   chan storeResult
}

// storeResult transfers either the new identifier, a record list, or an error.
type storeResult struct {
	id       int64
	affected int64
	orders   []orderRecord
	catalog  []catalogRecord
	err      error
}

// store keeps every table guarded by a dedicated goroutine.
type store struct {
	commands        chan storeCommand
	closed          chan struct{}
	persistRequests chan snapshot
	persistDone     chan struct{}
	orders          []orderRecord
	catalog         []catalogRecord
	orderCounter    int64
	snapshotPath    string
}

func newStore(path string) (*store, error) {
	loaded, err := readSnapshot(path)
	if err != nil {
		return nil, err
	}
	s := &store{
		// A small buffer keeps bootstrap operations from blocking before the store goroutine spins up.
		commands:        make(chan storeCommand, 32),
		closed:          make(chan struct{}),
		persistRequests: make(chan snapshot, 1),
		persistDone:     make(chan struct{}),
		snapshotPath:    path,
	}
	if loaded != nil {
		s.orders = loaded.Orders
		s.catalog = loaded.Catalog
		s.orderCounter = loaded.OrderCounter
	}
	go s.loop()
	go s.persistenceLoop()
	return s, nil
}

// loop serializes every mutation and read request to keep the state safe without mutexes.
func (s *store) loop() {
	for {
		select {
		case cmd := <-s.commands:
			cmd.reply <- s.apply(cmd)
		case <-s.closed:
			return
		}
	}
}

func (s *store) apply(cmd storeCommand) storeResult {
	switch cmd.action {
	case actionInsertOrder:
		s.orderCounter++
		cmd.order.ID = s.orderCounter
		s.orders = append(s.orders, cmd.order)
		s.queuePersist()
		return storeResult{id: cmd.order.ID, affected: 1}
	case actionListOrders:
		out := make([]orderRecord, 0, len(s.orders))
		for i := len(s.orders) - 1; i >= 0; i-- {
			out = append(out, s.orders[i])
		}
		return storeResult{orders: out}
	case actionInsertCatalog:
		for _, existing := range s.catalog {
			if existing.ID == cmd.catalog.ID {
				return storeResult{err: fmt.Errorf("duplicate catalog id %s", cmd.catalog.ID)}
			}
		}
		s.catalog = append(s.catalog, cmd.catalog)
		s.queuePersist()
		return storeResult{affected: 1}
	case actionListCatalog:
		out := make([]catalogRecord, 0, len(s.catalog))
		for _, record := range s.catalog {
			if cmd.key == "" || record.Kind == cmd.key {
				out = append(out, record)
			}
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
		return storeResult{catalog: out}
	case actionUpdateCatalog:
		for i := range s.catalog {
			if s.catalog[i].ID != cmd.catalog.ID {
				continue
			}
			s.catalog[i].Name = cmd.catalog.Name
			s.catalog[i].PriceCents = cmd.catalog.PriceCents
			s.catalog[i].Description = cmd.catalog.Description
			s.catalog[i].ImageURL = cmd.catalog.ImageURL
			s.catalog[i].Duration = cmd.catalog.Duration
			s.queuePersist()
			return storeResult{affected: 1}
		}
		return storeResult{}
	case actionDeleteCatalog:
		for i := range s.catalog {
			if s.catalog[i].ID == cmd.key {
				s.catalog = append(s.catalog[:i], s.catalog[i+1:]...)
				s.queuePersist()
				return storeResult{affected: 1}
			}
		}
		return storeResult{}
	case actionNoop:
		return storeResult{}
	default:
		return storeResult{err: fmt.Errorf("unsupported action %s", cmd.action)}
	}
}

// persistenceLoop writes snapshots asynchronously so the main loop stays responsive.
func (s *store) persistenceLoop() {
	defer close(s.persistDone)
	for {
		select {
		case snap := <-s.persistRequests:
			_ = writeSnapshot(s.snapshotPath, snap)
		case <-s.closed:
			// Flush whatever the last mutation queued.
			select {
			case snap := <-s.persistRequests:
				_ = writeSnapshot(s.snapshotPath, snap)
			default:
			}
			return
		}
	}
}

// queuePersist hands the current snapshot to the background writer, replacing an unwritten one.
func (s *store) queuePersist() {
	if s.snapshotPath == "" {
		return
	}
	snap := snapshot{
		Orders:       append([]orderRecord(nil), s.orders...),
		Catalog:      append([]catalogRecord(nil), s.catalog...),
		OrderCounter: s.orderCounter,
	}
	select {
	case s.persistRequests <- snap:
	default:
		select {
		case <-s.persistRequests:
		default:
		}
		s.persistRequests <- snap
	}
}

func (s *store) close() {
	close(s.closed)
	<-s.persistDone
}

// connector hands out connections bound to one store, so no global driver registration is needed.
type connector struct {
	store *store
}

func (c *connector) Connect(context.Context) (driver.Conn, error) {
	return &conn{store: c.store}, nil
}

func (c *connector) Driver() driver.Driver { return Driver{} }

// Driver satisfies driver.Driver for callers that need it; connections come from Open.
type Driver struct{}

// Open is not supported because stores are bound through connectors.
func (Driver) Open(string) (driver.Conn, error) {
	return nil, errors.New("memorydriver: use memorydriver.Open to obtain a database handle")
}

// conn represents a lightweight connection object; every operation still travels through channels.
type conn struct {
	store *store
}

// Prepare maps the small set of supported statements onto store actions.
func (c *conn) Prepare(query string) (driver.Stmt, error) {
	trimmed := strings.Join(strings.Fields(strings.ToLower(query)), " ")
	switch {
	case strings.HasPrefix(trimmed, "insert into orders"):
		return &stmt{store: c.store, action: actionInsertOrder}, nil
	case strings.HasPrefix(trimmed, "select") && strings.Contains(trimmed, "from orders"):
		return &stmt{store: c.store, action: actionListOrders}, nil
	case strings.HasPrefix(trimmed, "insert into catalog_items"):
		return &stmt{store: c.store, action: actionInsertCatalog}, nil
	case strings.HasPrefix(trimmed, "select") && strings.Contains(trimmed, "from catalog_items"):
		return &stmt{store: c.store, action: actionListCatalog}, nil
	case strings.HasPrefix(trimmed, "update catalog_items"):
		return &stmt{store: c.store, action: actionUpdateCatalog}, nil
	case strings.HasPrefix(trimmed, "delete from catalog_items"):
		return &stmt{store: c.store, action: actionDeleteCatalog}, nil
	case strings.HasPrefix(trimmed, "create table"), strings.HasPrefix(trimmed, "create index"):
		return &stmt{store: c.store, action: actionNoop}, nil
	default:
		return nil, fmt.Errorf("unsupported query: %s", query)
	}
}

// Close is a no-op because the shared store owns the lifecycle.
func (c *conn) Close() error { return nil }

func (c *conn) Begin() (driver.Tx, error) {
	return nil, errors.New("transactions are not supported by the memory driver")
}

// stmt forwards Exec and Query to the store with the data shaped for each case.
type stmt struct {
	store  *store
	action action
}

func (s *stmt) Close() error { return nil }

// NumInput returns -1 so database/sql accepts any argument count.
func (s *stmt) NumInput() int { return -1 }

// Exec handles the mutation statements supported by the driver.
func (s *stmt) Exec(args []driver.Value) (driver.Result, error) {
	cmd := storeCommand{action: s.action}

	switch s.action {
	case actionNoop:
		return execResult{}, nil
	case actionInsertOrder:
		if len(args) < 17 {
			return nil, fmt.Errorf("expected 17 arguments, got %d", len(args))
		}
		cmd.order = orderRecord{
			Reference:        toString(args[0]),
			Kind:             toString(args[1]),
			ItemID:           toString(args[2]),
			ItemName:         toString(args[3]),
			UnitPriceCents:   toInt64(args[4]),
			Quantity:         toInt64(args[5]),
			DeliveryMethod:   toString(args[6]),
			DeliveryFeeCents: toInt64(args[7]),
			TotalCents:       toInt64(args[8]),
			AppointmentDate:  toString(args[9]),
			AppointmentSlot:  toString(args[10]),
			Name:             toString(args[11]),
			Phone:            toString(args[12]),
			Email:            toString(args[13]),
			Address:          toString(args[14]),
			Notes:            toString(args[15]),
			CreatedAt:        toString(args[16]),
		}
	case actionInsertCatalog:
		if len(args) < 8 {
			return nil, fmt.Errorf("expected 8 arguments, got %d", len(args))
		}
		cmd.catalog = catalogRecord{
			ID:          toString(args[0]),
			Kind:        toString(args[1]),
			Name:        toString(args[2]),
			PriceCents:  toInt64(args[3]),
			Description: toString(args[4]),
			ImageURL:    toString(args[5]),
			Duration:    toString(args[6]),
			Position:    toInt64(args[7]),
		}
	case actionUpdateCatalog:
		if len(args) < 6 {
			return nil, fmt.Errorf("expected 6 arguments, got %d", len(args))
		}
		cmd.catalog = catalogRecord{
			Name:        toString(args[0]),
			PriceCents:  toInt64(args[1]),
			Description: toString(args[2]),
			ImageURL:    toString(args[3]),
			Duration:    toString(args[4]),
			ID:          toString(args[5]),
		}
	case actionDeleteCatalog:
		if len(args) < 1 {
			return nil, errors.New("expected id for delete")
		}
		cmd.key = toString(args[0])
	default:
		return nil, fmt.Errorf("unsupported exec action %s", s.action)
	}

	res, err := s.roundTrip(cmd)
	if err != nil {
		return nil, err
	}
	return execResult{id: res.id, affected: res.affected}, nil
}

// Query fetches the stored records and converts them into driver.Rows.
func (s *stmt) Query(args []driver.Value) (driver.Rows, error) {
	cmd := storeCommand{action: s.action}
	if s.action == actionListCatalog && len(args) > 0 {
		cmd.key = toString(args[0])
	}

	res, err := s.roundTrip(cmd)
	if err != nil {
		return nil, err
	}
	switch s.action {
	case actionListOrders:
		return &orderRows{records: res.orders}, nil
	case actionListCatalog:
		return &catalogRows{records: res.catalog}, nil
	default:
		return nil, errors.New("query only supports listing")
	}
}

// roundTrip sends the command to the store while honoring a timeout to avoid blocking forever.
func (s *stmt) roundTrip(cmd storeCommand) (storeResult, error) {
	cmd.reply = make(chan storeResult, 1)
	select {
	case s.store.commands <- cmd:
	case <-s.store.closed:
		return storeResult{}, errors.New("memory store is closed")
	case <-time.After(2 * time.Second):
		return storeResult{}, errors.New("timed out while enqueuing command")
	}
	select {
	case res := <-cmd.reply:
		return res, res.err
	case <-s.store.closed:
		return storeResult{}, errors.New("memory store is closed")
	}
}

type execResult struct {
	id       int64
	affected int64
}

func (r execResult) LastInsertId() (int64, error) { return r.id, nil }
func (r execResult) RowsAffected() (int64, error) { return r.affected, nil }

// orderRows iterates orders in the column order of the repository's SELECT.
type orderRows struct {
	records []orderRecord
	index   int
}

func (r *orderRows) Columns() []string {
	return []string{
		"id", "reference", "kind", "item_id", "item_name", "unit_price_cents", "quantity",
		"delivery_method", "delivery_fee_cents", "total_cents", "appointment_date", "appointment_slot",
		"name", "phone", "email", "address", "notes", "created_at",
	}
}

func (r *orderRows) Close() error { return nil }

func (r *orderRows) Next(dest []driver.Value) error {
	if r.index >= len(r.records) {
		return io.EOF
	}
	rec := r.records[r.index]
	r.index++
	values := []driver.Value{
		rec.ID, rec.Reference, rec.Kind, rec.ItemID, rec.ItemName, rec.UnitPriceCents, rec.Quantity,
		rec.DeliveryMethod, rec.DeliveryFeeCents, rec.TotalCents, rec.AppointmentDate, rec.AppointmentSlot,
		rec.Name, rec.Phone, rec.Email, rec.Address, rec.Notes, rec.CreatedAt,
	}
	copy(dest, values)
	return nil
}

// catalogRows iterates catalog items in the column order of the repository's SELECT.
type catalogRows struct {
	records []catalogRecord
	index   int
}

func (r *catalogRows) Columns() []string {
	return []string{"id", "kind", "name", "price_cents", "description", "image_url", "duration", "position"}
}

func (r *catalogRows) Close() error { return nil }

func (r *catalogRows) Next(dest []driver.Value) error {
	if r.index >= len(r.records) {
		return io.EOF
	}
	rec := r.records[r.index]
	r.index++
	values := []driver.Value{rec.ID, rec.Kind, rec.Name, rec.PriceCents, rec.Description, rec.ImageURL, rec.Duration, rec.Position}
	copy(dest, values)
	return nil
}

func toString(value driver.Value) string {
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

func toInt64(value driver.Value) int64 {
	switch v := value.(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	case bool:
		if v {
			return 1
		}
		return 0
	case string:
		var parsed int64
		fmt.Sscanf(v, "%d", &parsed)
		return parsed
	default:
		return 0
	}
}

// Open builds a database handle over a fresh store. An empty path keeps everything in memory;
// otherwise state is loaded from and snapshotted to that JSON file.
func Open(path string) (*sql.DB, func(), error) {
	st, err := newStore(path)
	if err != nil {
		return nil, func() {}, err
	}
	db := sql.OpenDB(&connector{store: st})
	cleanup := func() {
		st.close()
	}
	return db, cleanup, nil
}

func readSnapshot(path string) (*snapshot, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func writeSnapshot(path string, snap snapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	temp := path + ".tmp"
	if err := os.WriteFile(temp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(temp, path)
}
