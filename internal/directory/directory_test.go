package directory

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bigkaa/goartstore/user-admin/internal/domain/model"
)

func sampleUsers() []model.User {
	return []model.User{
		{ID: 1, Username: "Alice", RoleID: 1},
		{ID: 2, Username: "bob", RoleID: 2},
		{ID: 3, Username: "alicia", RoleID: 2},
		{ID: 4, Username: "carol", RoleID: 3},
	}
}

func ids(users []model.User) []int {
	out := make([]int, len(users))
	for i, u := range users {
		out[i] = u.ID
	}
	return out
}

func equalIDs(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// TestDirectory_Replace проверяет, что загрузка сбрасывает фильтры.
func TestDirectory_Replace(t *testing.T) {
	d := New()
	d.Replace(sampleUsers())
	d.ApplyTextFilter("ali")

	d.Replace(sampleUsers()[:2])

	if d.Total() != 2 {
		t.Errorf("Total() = %d, ожидается 2", d.Total())
	}
	if d.Query() != "" || d.RoleFilter() != RoleFilterAll {
		t.Errorf("фильтры не сброшены: query=%q role=%q", d.Query(), d.RoleFilter())
	}
	if !equalIDs(ids(d.Visible()), []int{1, 2}) {
		t.Errorf("Visible() = %v", ids(d.Visible()))
	}
	if !d.Loaded() {
		t.Error("Loaded() = false после Replace")
	}
}

func TestDirectory_ApplyTextFilter(t *testing.T) {
	tests := []struct {
		query string
		want  []int
	}{
		{"", []int{1, 2, 3, 4}},
		{"ali", []int{1, 3}},
		{"ALI", []int{1, 3}},
		{"o", []int{2, 4}},
		{"zzz", []int{}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("q=%q", tt.query), func(t *testing.T) {
			d := New()
			d.Replace(sampleUsers())
			d.ApplyTextFilter(tt.query)

			if got := ids(d.Visible()); !equalIDs(got, tt.want) {
				t.Errorf("Visible() = %v, ожидается %v", got, tt.want)
			}
			if d.Total() != 4 {
				t.Errorf("Total() = %d, фильтр не должен менять полный список", d.Total())
			}
		})
	}
}

// TestDirectory_TextFilterFromFullList проверяет, что фильтр
// вычисляется из полного списка, а не из предыдущего результата.
func TestDirectory_TextFilterFromFullList(t *testing.T) {
	d := New()
	d.Replace(sampleUsers())

	d.ApplyTextFilter("bob")
	d.ApplyTextFilter("carol")

	if got := ids(d.Visible()); !equalIDs(got, []int{4}) {
		t.Errorf("Visible() = %v, ожидается [4]", got)
	}
}

func TestDirectory_ApplyRoleFilter(t *testing.T) {
	tests := []struct {
		selector string
		want     []int
	}{
		{"all", []int{1, 2, 3, 4}},
		{"2", []int{2, 3}},
		{"3", []int{4}},
		{"9", []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.selector, func(t *testing.T) {
			d := New()
			d.Replace(sampleUsers())

			if err := d.ApplyRoleFilter(tt.selector); err != nil {
				t.Fatalf("ApplyRoleFilter(%q) вернул ошибку: %v", tt.selector, err)
			}
			if got := ids(d.Visible()); !equalIDs(got, tt.want) {
				t.Errorf("Visible() = %v, ожидается %v", got, tt.want)
			}
		})
	}
}

// TestDirectory_RoleFilterInvalid проверяет, что нечисловой селектор
// не меняет состояние.
func TestDirectory_RoleFilterInvalid(t *testing.T) {
	d := New()
	d.Replace(sampleUsers())
	d.ApplyTextFilter("ali")

	err := d.ApplyRoleFilter("admins")
	if !errors.Is(err, ErrInvalidRoleFilter) {
		t.Fatalf("ожидалась ErrInvalidRoleFilter, получено %v", err)
	}
	if d.Query() != "ali" {
		t.Errorf("Query() = %q, состояние изменилось", d.Query())
	}
	if got := ids(d.Visible()); !equalIDs(got, []int{1, 3}) {
		t.Errorf("Visible() = %v, состояние изменилось", got)
	}
}

// TestDirectory_FiltersMutuallyExclusive проверяет, что фильтры не комбинируются.
func TestDirectory_FiltersMutuallyExclusive(t *testing.T) {
	d := New()
	d.Replace(sampleUsers())

	d.ApplyTextFilter("ali")
	if err := d.ApplyRoleFilter("2"); err != nil {
		t.Fatalf("ApplyRoleFilter: %v", err)
	}
	if d.Query() != "" {
		t.Errorf("Query() = %q, текстовый фильтр должен сброситься", d.Query())
	}
	if got := ids(d.Visible()); !equalIDs(got, []int{2, 3}) {
		t.Errorf("Visible() = %v, ожидается [2 3]", got)
	}

	d.ApplyTextFilter("bob")
	if d.RoleFilter() != RoleFilterAll {
		t.Errorf("RoleFilter() = %q, фильтр роли должен сброситься", d.RoleFilter())
	}
	if got := ids(d.Visible()); !equalIDs(got, []int{2}) {
		t.Errorf("Visible() = %v, ожидается [2]", got)
	}
}

func TestDirectory_FindAndCopies(t *testing.T) {
	img := "https://img.local/a.png"
	users := sampleUsers()
	users[0].ImageURL = &img
	users[0].Role = &model.Role{ID: 1, Name: "Owner"}

	d := New()
	d.Replace(users)

	u, ok := d.Find(1)
	if !ok {
		t.Fatal("Find(1) не нашёл пользователя")
	}
	*u.ImageURL = "changed"
	u.Role.Name = "changed"
	u.Username = "changed"

	again, _ := d.Find(1)
	if again.Username != "Alice" || *again.ImageURL != img || again.Role.Name != "Owner" {
		t.Errorf("Find вернул не копию: %+v", again)
	}

	visible := d.Visible()
	visible[0].Username = "mutated"
	if d.Visible()[0].Username != "Alice" {
		t.Error("Visible вернул не копию")
	}

	if _, ok := d.Find(42); ok {
		t.Error("Find(42) нашёл несуществующего пользователя")
	}
}

func TestDirectory_RoleIDs(t *testing.T) {
	d := New()
	d.Replace([]model.User{
		{ID: 1, Username: "a", RoleID: 3},
		{ID: 2, Username: "b", RoleID: 1},
		{ID: 3, Username: "c", RoleID: 3},
	})

	if got := d.RoleIDs(); !equalIDs(got, []int{1, 3}) {
		t.Errorf("RoleIDs() = %v, ожидается [1 3]", got)
	}
}

func TestWorkspace_Notice(t *testing.T) {
	ws := NewWorkspace()
	if ws.TakeNotice() != nil {
		t.Fatal("новое рабочее пространство не должно иметь уведомления")
	}

	ws.SetNotice(model.NewNotice(model.NoticeSuccess, "notice.success", "notice.block.done"))

	n := ws.TakeNotice()
	if n == nil || n.Text != "notice.block.done" {
		t.Fatalf("TakeNotice() = %+v", n)
	}
	if ws.TakeNotice() != nil {
		t.Error("уведомление должно показываться один раз")
	}
}

func TestWorkspace_Snapshot(t *testing.T) {
	ws := NewWorkspace()
	ws.Replace(sampleUsers())
	ws.ApplyTextFilter("ali")

	snap := ws.Snapshot()
	if snap.Total != 4 || len(snap.Users) != 2 || snap.Query != "ali" || !snap.Loaded {
		t.Errorf("Snapshot() = %+v", snap)
	}
}

// TestRegistry_GetOrCreate проверяет создание и повторное получение.
func TestRegistry_GetOrCreate(t *testing.T) {
	reg := NewRegistry(10, time.Minute)

	if _, ok := reg.Get("s1"); ok {
		t.Fatal("ожидался miss для новой сессии")
	}

	ws := reg.GetOrCreate("s1")
	ws.Replace(sampleUsers())

	again, ok := reg.Get("s1")
	if !ok {
		t.Fatal("ожидался hit после GetOrCreate")
	}
	if again != ws {
		t.Error("GetOrCreate должен возвращать тот же экземпляр")
	}
	if reg.GetOrCreate("s2") == ws {
		t.Error("разные сессии должны иметь разные рабочие пространства")
	}
	if reg.Len() != 2 {
		t.Errorf("Len() = %d, ожидается 2", reg.Len())
	}
}

func TestRegistry_Delete(t *testing.T) {
	reg := NewRegistry(10, time.Minute)
	reg.GetOrCreate("s1")

	reg.Delete("s1")

	if _, ok := reg.Get("s1"); ok {
		t.Error("рабочее пространство должно быть удалено")
	}
}

// TestRegistry_Eviction проверяет вытеснение при переполнении.
func TestRegistry_Eviction(t *testing.T) {
	reg := NewRegistry(2, time.Minute)
	reg.GetOrCreate("s1")
	reg.GetOrCreate("s2")
	reg.GetOrCreate("s3")

	if _, ok := reg.Get("s1"); ok {
		t.Error("самая старая сессия должна быть вытеснена")
	}
	if reg.Len() != 2 {
		t.Errorf("Len() = %d, ожидается 2", reg.Len())
	}
}
