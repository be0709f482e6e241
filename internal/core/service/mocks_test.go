package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/orderstack/order-management/internal/core/domain"
	"github.com/orderstack/order-management/internal/port"
)

// memLocker emulates the distributed lock: one holder per key, polling
// acquisition bounded by a wait budget.
type memLocker struct {
	mu       sync.Mutex
	held     map[string]bool
	wait     time.Duration
	acquired atomic.Int32
	released atomic.Int32
}

func newMemLocker(wait time.Duration) *memLocker {
	return &memLocker{held: make(map[string]bool), wait: wait}
}

func (l *memLocker) Acquire(ctx context.Context, key string) (port.Lock, error) {
	deadline := time.Now().Add(l.wait)
	for {
		l.mu.Lock()
		if !l.held[key] {
			l.held[key] = true
			l.mu.Unlock()
			l.acquired.Add(1)
			return &memLock{locker: l, key: key}, nil
		}
		l.mu.Unlock()
		if time.Now().After(deadline) {
			return nil, port.ErrLockTimeout
		}
		time.Sleep(time.Millisecond)
	}
}

// hold seizes a key out of band, as if another process owned it.
func (l *memLocker) hold(key string) {
	l.mu.Lock()
	l.held[key] = true
	l.mu.Unlock()
}

type memLock struct {
	locker *memLocker
	key    string
}

func (k *memLock) Release(ctx context.Context) {
	k.locker.mu.Lock()
	k.locker.held[k.key] = false
	k.locker.mu.Unlock()
	k.locker.released.Add(1)
}

var errAppendFailed = errors.New("simulated ledger failure")

// memStore backs every repository port with transactional semantics: writes
// made through a memTx stay invisible until Commit and vanish on Rollback,
// and GetForUpdate blocks other transactions on the same row until the
// holding transaction ends.
type memStore struct {
	mu       sync.Mutex
	rowLocks map[int64]*sync.Mutex

	products   map[int64]domain.Product
	inventory  map[int64]int
	customers  map[int64]domain.Customer
	orders     []domain.Order
	nextProdID int64
	nextCustID int64
	nextOrdID  int64

	failOrderAppend bool
}

func newMemStore() *memStore {
	return &memStore{
		rowLocks:  make(map[int64]*sync.Mutex),
		products:  make(map[int64]domain.Product),
		inventory: make(map[int64]int),
		customers: make(map[int64]domain.Customer),
	}
}

func (m *memStore) seedProduct(name string, price float64, stock int) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextProdID++
	id := m.nextProdID
	m.products[id] = domain.Product{ID: id, Name: name, Price: price, CreatedAt: time.Now()}
	m.inventory[id] = stock
	return id
}

func (m *memStore) seedCustomer(name, email string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextCustID++
	id := m.nextCustID
	m.customers[id] = domain.Customer{ID: id, Name: name, Email: email, CreatedAt: time.Now()}
	return id
}

func (m *memStore) stock(productID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inventory[productID]
}

func (m *memStore) orderCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

func (m *memStore) rowLock(productID int64) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rowLocks[productID]; !ok {
		m.rowLocks[productID] = &sync.Mutex{}
	}
	return m.rowLocks[productID]
}

// memTx stages writes until Commit.
type memTx struct {
	store *memStore

	stagedInv      map[int64]int
	stagedProducts map[int64]domain.Product
	stagedOrders   []domain.Order
	deletedProds   []int64
	deletedInv     []int64
	locked         []*sync.Mutex
	done           bool
}

func (m *memStore) BeginTx(ctx context.Context) (port.DBTX, error) {
	return &memTx{
		store:          m,
		stagedInv:      make(map[int64]int),
		stagedProducts: make(map[int64]domain.Product),
	}, nil
}

func (t *memTx) Commit() error {
	if t.done {
		return sql.ErrTxDone
	}
	t.store.mu.Lock()
	for id, p := range t.stagedProducts {
		t.store.products[id] = p
	}
	for id, qty := range t.stagedInv {
		t.store.inventory[id] = qty
	}
	t.store.orders = append(t.store.orders, t.stagedOrders...)
	for _, id := range t.deletedInv {
		delete(t.store.inventory, id)
	}
	for _, id := range t.deletedProds {
		delete(t.store.products, id)
	}
	t.store.mu.Unlock()
	t.finish()
	return nil
}

func (t *memTx) Rollback() error {
	if t.done {
		return sql.ErrTxDone
	}
	t.finish()
	return nil
}

func (t *memTx) finish() {
	t.done = true
	for _, l := range t.locked {
		l.Unlock()
	}
	t.locked = nil
}

// The DBTX query surface is unused by the in-memory doubles; repositories go
// through the typed methods below.
func (t *memTx) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, nil
}
func (t *memTx) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return nil
}
func (t *memTx) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return nil
}

// --- port.ProductRepository ---

func (m *memStore) Create(ctx context.Context, tx port.DBTX, product *domain.Product) (int64, error) {
	t := tx.(*memTx)
	m.mu.Lock()
	m.nextProdID++
	id := m.nextProdID
	m.mu.Unlock()
	p := *product
	p.ID = id
	t.stagedProducts[id] = p
	return id, nil
}

func (m *memStore) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.products[id]; ok {
		return &p, nil
	}
	return nil, nil
}

func (m *memStore) GetByName(ctx context.Context, name string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.products {
		if p.Name == name {
			p := p
			return &p, nil
		}
	}
	return nil, nil
}

func (m *memStore) List(ctx context.Context) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	return out, nil
}

func (m *memStore) Update(ctx context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[product.ID] = *product
	return nil
}

func (m *memStore) Delete(ctx context.Context, tx port.DBTX, id int64) error {
	t := tx.(*memTx)
	t.deletedProds = append(t.deletedProds, id)
	return nil
}

// --- port.InventoryRepository ---

type memInventoryRepo struct{ store *memStore }

func (r *memInventoryRepo) Create(ctx context.Context, tx port.DBTX, inv domain.Inventory) error {
	t := tx.(*memTx)
	t.stagedInv[inv.ProductID] = inv.StockQuantity
	return nil
}

func (r *memInventoryRepo) Get(ctx context.Context, productID int64) (*domain.Inventory, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	qty, ok := r.store.inventory[productID]
	if !ok {
		return nil, nil
	}
	return &domain.Inventory{ProductID: productID, StockQuantity: qty}, nil
}

func (r *memInventoryRepo) GetForUpdate(ctx context.Context, tx port.DBTX, productID int64) (*domain.Inventory, error) {
	t := tx.(*memTx)
	rl := r.store.rowLock(productID)
	rl.Lock()
	t.locked = append(t.locked, rl)

	if qty, ok := t.stagedInv[productID]; ok {
		return &domain.Inventory{ProductID: productID, StockQuantity: qty}, nil
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	qty, ok := r.store.inventory[productID]
	if !ok {
		return nil, nil
	}
	return &domain.Inventory{ProductID: productID, StockQuantity: qty}, nil
}

func (r *memInventoryRepo) UpdateQuantity(ctx context.Context, tx port.DBTX, productID int64, quantity int) error {
	t := tx.(*memTx)
	t.stagedInv[productID] = quantity
	return nil
}

func (r *memInventoryRepo) Delete(ctx context.Context, tx port.DBTX, productID int64) error {
	t := tx.(*memTx)
	t.deletedInv = append(t.deletedInv, productID)
	return nil
}

// --- port.OrderRepository ---

type memOrderRepo struct{ store *memStore }

func (r *memOrderRepo) Append(ctx context.Context, tx port.DBTX, order domain.Order) (int64, error) {
	if r.store.failOrderAppend {
		return 0, errAppendFailed
	}
	t := tx.(*memTx)
	r.store.mu.Lock()
	r.store.nextOrdID++
	order.ID = r.store.nextOrdID
	r.store.mu.Unlock()
	t.stagedOrders = append(t.stagedOrders, order)
	return order.ID, nil
}

func (r *memOrderRepo) ListByCustomer(ctx context.Context, customerID int64) ([]domain.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := []domain.Order{}
	for _, o := range r.store.orders {
		if o.CustomerID == customerID {
			out = append(out, o)
		}
	}
	return out, nil
}

// --- port.CustomerRepository / port.AdminRepository ---

type memAccountRepo struct {
	store  *memStore
	mu     sync.Mutex
	admins map[string]domain.Admin
	nextID int64
}

func newMemAccountRepo(store *memStore) *memAccountRepo {
	return &memAccountRepo{store: store, admins: make(map[string]domain.Admin)}
}

func (r *memAccountRepo) Create(ctx context.Context, customer *domain.Customer) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.nextCustID++
	customer.ID = r.store.nextCustID
	r.store.customers[customer.ID] = *customer
	return customer.ID, nil
}

func (r *memAccountRepo) GetByID(ctx context.Context, id int64) (*domain.Customer, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if c, ok := r.store.customers[id]; ok {
		return &c, nil
	}
	return nil, nil
}

func (r *memAccountRepo) GetByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, c := range r.store.customers {
		if c.Email == email {
			c := c
			return &c, nil
		}
	}
	return nil, nil
}

func (r *memAccountRepo) CreateAdmin(ctx context.Context, admin *domain.Admin) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	admin.ID = r.nextID
	r.admins[admin.Email] = *admin
	return admin.ID, nil
}

func (r *memAccountRepo) GetAdminByEmail(ctx context.Context, email string) (*domain.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.admins[email]; ok {
		return &a, nil
	}
	return nil, nil
}

// purchaseEnv wires a PurchaseService over the in-memory doubles.
type purchaseEnv struct {
	store    *memStore
	locker   *memLocker
	accounts *memAccountRepo
	svc      *PurchaseService
}

func newPurchaseEnv(lockWait time.Duration) *purchaseEnv {
	store := newMemStore()
	locker := newMemLocker(lockWait)
	accounts := newMemAccountRepo(store)
	svc := NewPurchaseService(
		locker,
		store,
		store,
		&memInventoryRepo{store: store},
		&memOrderRepo{store: store},
		accounts,
	)
	return &purchaseEnv{store: store, locker: locker, accounts: accounts, svc: svc}
}
