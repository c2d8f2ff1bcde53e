// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package webhook

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type metricsWebhook struct {
	once     sync.Once
	requests *prometheus.CounterVec
}

var whMetrics metricsWebhook

func (m *metricsWebhook) init() {
	m.once.Do(func() {
		m.requests = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "docsync_webhook_requests_total", Help: "Push notifications by response status"}, []string{"code"})
		prometheus.MustRegister(m.requests)
	})
}

func recordRequest(status int) {
	whMetrics.init()
	whMetrics.requests.WithLabelValues(strconv.Itoa(status)).Inc()
}
