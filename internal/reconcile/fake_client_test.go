package reconcile

import (
	"context"
	"fmt"

	api "github.com/systmms/accountsync/pkg/vault"
)

// fakeClient is an in-memory vault used by the engine tests. Behaviors
// are overridden per test by setting the corresponding func field;
// unset fields fall back to the built-in stores.
type fakeClient struct {
	accounts []api.AccountData
	safes    map[string]*api.Safe
	members  map[string][]api.Member

	searchErr error
	addErr    error
	updateErr error
	secretErr error
	deleteErr error

	searchCalls []api.SearchQuery
	added       []api.NewAccount
	patched     map[string][]api.PatchOperation
	secrets     map[string]string
	deleted     []string
	addedSafes  []api.Safe
	grants      map[string][]api.Member
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		safes:   make(map[string]*api.Safe),
		members: make(map[string][]api.Member),
		patched: make(map[string][]api.PatchOperation),
		secrets: make(map[string]string),
		grants:  make(map[string][]api.Member),
	}
}

func (f *fakeClient) Logon(ctx context.Context) error  { return nil }
func (f *fakeClient) Logoff(ctx context.Context) error { return nil }

func (f *fakeClient) SearchAccounts(ctx context.Context, q api.SearchQuery) ([]api.AccountData, error) {
	f.searchCalls = append(f.searchCalls, q)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	var out []api.AccountData
	for _, a := range f.accounts {
		if q.SafeName != "" && a.Str("safeName") != q.SafeName {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeClient) AddAccount(ctx context.Context, a api.NewAccount) (api.AccountData, error) {
	if f.addErr != nil {
		return nil, f.addErr
	}
	f.added = append(f.added, a)
	created := api.AccountData{
		"id":         fmt.Sprintf("11_%d", len(f.added)),
		"name":       a.Name,
		"address":    a.Address,
		"userName":   a.UserName,
		"platformId": a.PlatformID,
		"safeName":   a.SafeName,
	}
	f.accounts = append(f.accounts, created)
	return created, nil
}

func (f *fakeClient) UpdateAccount(ctx context.Context, id string, ops []api.PatchOperation) (api.AccountData, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.patched[id] = append(f.patched[id], ops...)
	for _, a := range f.accounts {
		if a.ID() == id {
			return a, nil
		}
	}
	return api.AccountData{"id": id}, nil
}

func (f *fakeClient) UpdateSecret(ctx context.Context, id, secret string) error {
	if f.secretErr != nil {
		return f.secretErr
	}
	f.secrets[id] = secret
	return nil
}

func (f *fakeClient) DeleteAccount(ctx context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeClient) GetSafe(ctx context.Context, name string) (*api.Safe, error) {
	return f.safes[name], nil
}

func (f *fakeClient) AddSafe(ctx context.Context, s api.Safe) error {
	f.addedSafes = append(f.addedSafes, s)
	f.safes[s.SafeName] = &s
	return nil
}

func (f *fakeClient) ListSafeMembers(ctx context.Context, safeName string) ([]api.Member, error) {
	return f.members[safeName], nil
}

func (f *fakeClient) AddSafeMember(ctx context.Context, safeName string, m api.Member) error {
	f.grants[safeName] = append(f.grants[safeName], m)
	f.members[safeName] = append(f.members[safeName], m)
	return nil
}

var _ api.Client = (*fakeClient)(nil)
