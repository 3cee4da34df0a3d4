package authz

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/GoPolymarket/premarket/internal/pkg/apperrors"
)

// MaxEntries bounds both the caller allow-list and the relayer list.
const MaxEntries = 10

// ListErrors selects the errors a bounded list reports.
type ListErrors struct {
	Duplicate *apperrors.AppError
	Full      *apperrors.AppError
	Missing   *apperrors.AppError
}

var (
	CallerListErrors = ListErrors{
		Duplicate: apperrors.ErrCallerAlreadyAuthorized,
		Full:      apperrors.ErrTooManyCallers,
		Missing:   apperrors.ErrCallerNotFound,
	}
	RelayerListErrors = ListErrors{
		Duplicate: apperrors.ErrRelayerAlreadyAdded,
		Full:      apperrors.ErrTooManyRelayers,
		Missing:   apperrors.ErrRelayerNotFound,
	}
)

// AllowList is a bounded, duplicate-free set of module or relayer ids.
type AllowList []common.Address

func (l AllowList) Contains(id common.Address) bool {
	for _, v := range l {
		if v == id {
			return true
		}
	}
	return false
}

// Add returns a new list with id appended. The receiver is left untouched.
func (l AllowList) Add(id common.Address, errs ListErrors) (AllowList, error) {
	if id == (common.Address{}) {
		return l, apperrors.ErrInvalidAddress
	}
	if l.Contains(id) {
		return l, errs.Duplicate
	}
	if len(l) >= MaxEntries {
		return l, errs.Full
	}
	out := make(AllowList, len(l), len(l)+1)
	copy(out, l)
	return append(out, id), nil
}

// Remove returns a new list without id.
func (l AllowList) Remove(id common.Address, errs ListErrors) (AllowList, error) {
	for i, v := range l {
		if v != id {
			continue
		}
		out := make(AllowList, 0, len(l)-1)
		out = append(out, l[:i]...)
		return append(out, l[i+1:]...), nil
	}
	return l, errs.Missing
}
