package nfregistry

// DiscoveryQuery expresses the filters a discovery request can apply,
// adapted from the NRF's DiscoveryQuery.Matches.
type DiscoveryQuery struct {
	NFType       NFType
	ServiceNames []string
	PLMN         *PLMNID
	SNSSAIs      []SNSSAI
	DNN          string
	TAI          *TAI
}

// matches reports whether profile satisfies the query filters. Health
// is checked by the caller (Discover), not here, so matches stays a
// pure function of the query and the candidate profile.
func (q *DiscoveryQuery) matches(n *NfInstance) bool {
	if q.NFType != "" && n.NFType != q.NFType {
		return false
	}
	if q.PLMN != nil {
		if n.PLMN.MCC != q.PLMN.MCC || n.PLMN.MNC != q.PLMN.MNC {
			return false
		}
	}
	if len(q.SNSSAIs) > 0 && !anySnssaiMatches(q.SNSSAIs, n.SNSSAIs) {
		return false
	}
	if len(q.ServiceNames) > 0 && !anyServiceMatches(q.ServiceNames, n.Services) {
		return false
	}
	if q.DNN != "" && !containsString(n.DNNList, q.DNN) {
		return false
	}
	if q.TAI != nil && !anyTAIMatches(*q.TAI, n.TAIList) {
		return false
	}
	return true
}

func anySnssaiMatches(query, have []SNSSAI) bool {
	for _, q := range query {
		for _, h := range have {
			if q.SST == h.SST && (q.SD == "" || q.SD == h.SD) {
				return true
			}
		}
	}
	return false
}

func anyServiceMatches(names []string, services []NFService) bool {
	for _, name := range names {
		for _, s := range services {
			if s.ServiceName == name {
				return true
			}
		}
	}
	return false
}

func anyTAIMatches(query TAI, have []TAI) bool {
	for _, h := range have {
		if h.PLMNID == query.PLMNID && h.TAC == query.TAC {
			return true
		}
	}
	return false
}

func containsString(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
