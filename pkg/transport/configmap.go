// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"

	"github.com/NVIDIA/gpu-cluster-monitor/pkg/defaults"
	"github.com/NVIDIA/gpu-cluster-monitor/pkg/errors"
	"github.com/NVIDIA/gpu-cluster-monitor/pkg/k8s/client"
)

// ConfigMapTransport stores every host's snapshot under its own data key in
// one shared ConfigMap. Updates are JSON merge patches that touch only the
// publishing host's key.
type ConfigMapTransport struct {
	client    client.Interface
	namespace string
	name      string
}

// NewConfigMapTransport returns a transport backed by the given client.
func NewConfigMapTransport(c client.Interface, namespace, name string) *ConfigMapTransport {
	return &ConfigMapTransport{
		client:    c,
		namespace: namespace,
		name:      name,
	}
}

// NewConfigMapTransportFromKubeconfig builds a Kubernetes client from
// kubeconfig (empty for auto-discovery) and returns the transport.
func NewConfigMapTransportFromKubeconfig(namespace, name, kubeconfig string) (*ConfigMapTransport, error) {
	var (
		c   client.Interface
		err error
	)
	if kubeconfig == "" {
		c, _, err = client.GetKubeClient()
	} else {
		c, _, err = client.BuildKubeClient(kubeconfig)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get kubernetes client: %w", err)
	}
	return NewConfigMapTransport(c, namespace, name), nil
}

// Name implements Transport.
func (t *ConfigMapTransport) Name() string { return "configmap" }

// Publish implements Transport.
func (t *ConfigMapTransport) Publish(ctx context.Context, host string, content []byte) error {
	return t.PublishAll(ctx, map[string][]byte{host: content})
}

// PublishAll implements BatchPublisher with a single merge patch. The
// ConfigMap is created when it does not exist yet.
func (t *ConfigMapTransport) PublishAll(ctx context.Context, contents map[string][]byte) error {
	if len(contents) == 0 {
		return nil
	}
	wctx, cancel := context.WithTimeout(ctx, defaults.K8sRequestTimeout)
	defer cancel()

	data := make(map[string]string, len(contents))
	for host, c := range contents {
		data[contentKey(host)] = string(c)
	}

	patch, err := json.Marshal(map[string]any{"data": data})
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, "failed to build ConfigMap patch", err)
	}

	cms := t.client.CoreV1().ConfigMaps(t.namespace)
	_, err = cms.Patch(wctx, t.name, types.MergePatchType, patch, metav1.PatchOptions{FieldManager: "gpumon"})
	if apierrors.IsNotFound(err) {
		slog.Info("creating snapshot ConfigMap", slog.String("namespace", t.namespace), slog.String("name", t.name))
		cm := &corev1.ConfigMap{
			ObjectMeta: metav1.ObjectMeta{
				Name:      t.name,
				Namespace: t.namespace,
				Labels: map[string]string{
					"app.kubernetes.io/name":      "gpumon",
					"app.kubernetes.io/component": "snapshots",
				},
			},
			Data: data,
		}
		_, err = cms.Create(wctx, cm, metav1.CreateOptions{FieldManager: "gpumon"})
		if apierrors.IsAlreadyExists(err) {
			// Another host created it first.
			_, err = cms.Patch(wctx, t.name, types.MergePatchType, patch, metav1.PatchOptions{FieldManager: "gpumon"})
		}
	}
	if err != nil {
		return errors.WrapWithContext(errors.ErrCodePublishFailed, "failed to update ConfigMap", err,
			map[string]any{"namespace": t.namespace, "name": t.name, "keys": len(data)})
	}
	return nil
}

// Fetch implements Transport.
func (t *ConfigMapTransport) Fetch(ctx context.Context, host string) ([]byte, error) {
	cm, err := t.client.CoreV1().ConfigMaps(t.namespace).Get(ctx, t.name, metav1.GetOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return nil, fmt.Errorf("configmap %s/%s: %w", t.namespace, t.name, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get configmap %s/%s: %w", t.namespace, t.name, err)
	}
	v, ok := cm.Data[contentKey(host)]
	if !ok {
		return nil, fmt.Errorf("configmap %s/%s key %s: %w", t.namespace, t.name, contentKey(host), ErrNotFound)
	}
	return []byte(v), nil
}
